package session

// Activity is a user interaction observed by the terminal.
type Activity string

const (
	ActivityPointerDown Activity = "pointer-down"
	ActivityPointerMove Activity = "pointer-move"
	ActivityKeyPress    Activity = "key-press"
	ActivityScroll      Activity = "scroll"
	ActivityTouchStart  Activity = "touch-start"
	ActivityClick       Activity = "click"
)

// Extends reports whether the activity pushes the idle deadline forward.
func (a Activity) Extends() bool {
	switch a {
	case ActivityPointerDown, ActivityPointerMove, ActivityKeyPress,
		ActivityScroll, ActivityTouchStart, ActivityClick:
		return true
	}
	return false
}
