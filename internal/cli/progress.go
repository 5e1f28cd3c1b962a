package cli

import (
	"fmt"
	"strings"
)

// ─── Meter ──────────────────────────────────────────────────────────────────
// Terminal bars for level progress and portal stability.
// Renders: [=============>................]  42%

const barWidth = 30 // Characters for the bar

// renderBar draws frac (clamped to [0,1]) as a fixed-width bar.
func renderBar(frac float64) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	filled := int(frac * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	var bar string
	if filled == barWidth {
		bar = strings.Repeat("=", filled)
	} else if filled > 0 {
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	} else {
		bar = strings.Repeat(".", barWidth)
	}
	return fmt.Sprintf("[%s] %3.0f%%", bar, frac*100)
}

// renderSteps draws n of total as filled and hollow markers, e.g. ●●○.
func renderSteps(n, total int) string {
	n = max(0, min(n, total))
	return strings.Repeat("●", n) + strings.Repeat("○", total-n)
}
