// Package pip holds the picture-in-picture sub-state.
//
// The host reports stop callbacks in two orders: an explicit stop yields
// willStop, restoreUI, didStop while the system restore button yields
// restoreUI, willStop, didStop. The reducer tracks IsBeingRestored between
// restoreUI and didStop so that didStop resolves to DidRestore or DidClose.
package pip

import "github.com/samber/mo"

// Method is a command for the picture-in-picture host.
type Method int

const (
	MethodStart Method = iota
	MethodStop
)

func (m Method) String() string {
	if m == MethodStart {
		return "pictureInPicture.start"
	}
	return "pictureInPicture.stop"
}

// Delegate is a host callback, or one of the synthesized DidClose/DidRestore.
type Delegate int

const (
	WillStart Delegate = iota
	DidStart
	WillStop
	DidStop
	DidClose
	DidRestore
	RestoreUI
)

func (d Delegate) String() string {
	switch d {
	case WillStart:
		return "willStart"
	case DidStart:
		return "didStart"
	case WillStop:
		return "willStop"
	case DidStop:
		return "didStop"
	case DidClose:
		return "didClose"
	case DidRestore:
		return "didRestore"
	case RestoreUI:
		return "restoreUI"
	default:
		return "unknown"
	}
}

// State represents the picture-in-picture slice.
type State struct {
	Enabled         bool
	Possible        bool
	IsBeingRestored bool

	Method   mo.Option[Method]
	Delegate mo.Option[Delegate]
}

// Action is an input to the picture-in-picture reducer.
type Action interface {
	pipAction()
}

// EnabledChanged turns the feature on or off.
type EnabledChanged struct{ Enabled bool }

// PossibleChanged reports whether the host can start picture-in-picture now.
type PossibleChanged struct{ Possible bool }

// CallMethod places a command in the mailbox. A None method clears it.
type CallMethod struct{ Method mo.Option[Method] }

// CallDelegate reports a host callback.
type CallDelegate struct{ Delegate Delegate }

func (EnabledChanged) pipAction()  {}
func (PossibleChanged) pipAction() {}
func (CallMethod) pipAction()      {}
func (CallDelegate) pipAction()    {}

// Call is shorthand for a CallMethod carrying m.
func Call(m Method) CallMethod {
	return CallMethod{Method: mo.Some(m)}
}

// Reduce applies a to s and returns the follow-up actions to process next.
func Reduce(s *State, a Action) []Action {
	switch a := a.(type) {
	case EnabledChanged:
		s.Enabled = a.Enabled
	case PossibleChanged:
		s.Possible = a.Possible
	case CallMethod:
		s.Method = a.Method
		if a.Method.IsPresent() {
			return []Action{CallMethod{Method: mo.None[Method]()}}
		}
	case CallDelegate:
		switch a.Delegate {
		case RestoreUI:
			s.IsBeingRestored = true
			s.Delegate = mo.Some(RestoreUI)
		case DidStop:
			if s.IsBeingRestored {
				s.Delegate = mo.Some(DidRestore)
			} else {
				s.Delegate = mo.Some(DidClose)
			}
			s.IsBeingRestored = false
		default:
			s.Delegate = mo.Some(a.Delegate)
		}
	}
	return nil
}
