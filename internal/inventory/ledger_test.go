package inventory

import "testing"

func TestClampStock(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-10, 0},
		{-1, 0},
		{0, 0},
		{1, 1},
		{500, 500},
	}
	for _, tt := range tests {
		if got := ClampStock(tt.in); got != tt.want {
			t.Fatalf("ClampStock(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStockPipelineShape(t *testing.T) {
	pipeline := stockPipeline(-3)
	if len(pipeline) != 2 {
		t.Fatalf("expected 2 stages (delta, inStock recompute), got %d", len(pipeline))
	}
}
