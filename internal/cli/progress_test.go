package cli

import "testing"

func TestRenderBar(t *testing.T) {
	tests := []struct {
		frac float64
		want string
	}{
		{0, "[..............................]   0%"},
		{-1, "[..............................]   0%"},
		{1, "[==============================] 100%"},
		{2, "[==============================] 100%"},
		{0.5, "[==============>...............]  50%"},
	}
	for _, tt := range tests {
		if got := renderBar(tt.frac); got != tt.want {
			t.Errorf("renderBar(%v) = %q, want %q", tt.frac, got, tt.want)
		}
	}
}

func TestRenderSteps(t *testing.T) {
	if got := renderSteps(2, 3); got != "●●○" {
		t.Errorf("renderSteps(2,3) = %q", got)
	}
	if got := renderSteps(5, 3); got != "●●●" {
		t.Errorf("renderSteps(5,3) = %q", got)
	}
	if got := renderSteps(-1, 2); got != "○○" {
		t.Errorf("renderSteps(-1,2) = %q", got)
	}
}
