package orders

import (
	"errors"
	"fmt"

	"storefront/internal/models"
)

var (
	ErrInvalidStatus = errors.New("invalid status value")
	ErrOrderLocked   = errors.New("order is in a terminal state")
	ErrOrderNotFound = errors.New("order not found")
	ErrNotSeller     = errors.New("order does not contain any item of this seller")
)

// InvalidTransitionError reports a known target that is not reachable from
// the current state.
type InvalidTransitionError struct {
	From, To string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

var transitions = map[string][]string{
	models.StatusPlaced:    {models.StatusConfirmed, models.StatusShipped, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusShipped, models.StatusCancelled},
	models.StatusShipped:   {models.StatusDelivered, models.StatusCancelled},
	models.StatusDelivered: {},
	models.StatusCancelled: {},
}

// IsTerminal reports whether no further transition is permitted from status.
func IsTerminal(status string) bool {
	next, ok := transitions[status]
	return ok && len(next) == 0
}

// CanTransition validates a seller-requested move. A terminal current state
// locks the order regardless of target.
func CanTransition(from, to string) error {
	if IsTerminal(from) {
		return ErrOrderLocked
	}
	if _, known := transitions[to]; !known {
		return ErrInvalidStatus
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return InvalidTransitionError{From: from, To: to}
}
