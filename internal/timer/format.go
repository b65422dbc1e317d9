package timer

import "fmt"

// Format renders whole seconds as HH:MM:SS. It is a display helper only;
// the countdown itself is kept in seconds.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
