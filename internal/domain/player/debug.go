package player

// Color keys used by debug overlays.
const (
	ColorRed    = "red"
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorWhite  = "white"
)

func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "Failed"
	case StatusReadyToPlay:
		return "Ready To Play"
	case StatusUnknown:
		return "Unknown"
	default:
		return "Undefined"
	}
}

// Color returns the debug overlay color for s.
func (s Status) Color() string {
	switch s {
	case StatusReadyToPlay:
		return ColorGreen
	case StatusFailed, StatusUnknown:
		return ColorRed
	default:
		return ColorWhite
	}
}

func (s TimeControlStatus) String() string {
	switch s {
	case TimeControlPaused:
		return "Paused"
	case TimeControlPlaying:
		return "Playing"
	case TimeControlWaitingToPlayAtSpecifiedRate:
		return "Waiting"
	default:
		return "Undefined"
	}
}

// Color returns the debug overlay color for s.
func (s TimeControlStatus) Color() string {
	switch s {
	case TimeControlPlaying:
		return ColorGreen
	case TimeControlWaitingToPlayAtSpecifiedRate:
		return ColorYellow
	default:
		return ColorWhite
	}
}

// Label returns the short debug description of r.
func (r WaitingReason) Label() string {
	switch r {
	case WaitingEvaluatingBufferingRate:
		return "Evaluating"
	case WaitingToMinimizeStalls:
		return "Buffering"
	case WaitingNoItemToPlay:
		return "No Item"
	default:
		return "Undefined"
	}
}

// Color returns the debug overlay color for r.
func (r WaitingReason) Color() string {
	switch r {
	case WaitingEvaluatingBufferingRate, WaitingToMinimizeStalls:
		return ColorYellow
	case WaitingNoItemToPlay:
		return ColorRed
	default:
		return ColorWhite
	}
}
