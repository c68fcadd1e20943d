package handlers

import (
	"io"
	"log"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"storefront/internal/broadcast"
)

// StockStream pushes stock updates to the client over SSE. Best effort: no
// replay, no ordering guarantee across products; a reconnecting client must
// re-fetch current state.
func StockStream(hub *broadcast.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, events := hub.Subscribe()
		defer hub.Unsubscribe(id)

		log.Println("[STREAM] [INFO] subscriber connected:", id)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Flush()

		c.Stream(func(w io.Writer) bool {
			select {
			case update, ok := <-events:
				if !ok {
					return false
				}
				if err := sse.Encode(w, sse.Event{
					Event: "stockUpdate",
					Data:  update,
				}); err != nil {
					return false
				}
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})

		log.Println("[STREAM] [INFO] subscriber disconnected:", id)
	}
}
