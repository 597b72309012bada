package logic

import "fmt"

// Log tags used by the controller.
const (
	TagButton = "BUTTON"
	TagStatus = "STATUS"
	TagInit   = "INIT"
	TagMain   = "MAIN"
)

// FormatStatus returns the periodic status line, e.g. "State: 1, Left: 1, Right: 0".
func FormatStatus(mode Mode, p LampPattern) string {
	return fmt.Sprintf("State: %d, Left: %d, Right: %d", int(mode), boolToInt(p.Left), boolToInt(p.Right))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
