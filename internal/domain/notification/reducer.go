package notification

import "github.com/samber/mo"

// Action is an input to the notification reducer.
type Action interface {
	notificationAction()
}

// CallMethod places a command in the mailbox. A None method clears it.
type CallMethod struct{ Method mo.Option[Method] }

// Received records a notification. A None event clears the slot.
type Received struct{ Event mo.Option[Event] }

// LogReceived prepends an access or error log entry.
type LogReceived struct{ Log Log }

func (CallMethod) notificationAction()  {}
func (Received) notificationAction()    {}
func (LogReceived) notificationAction() {}

// Call is shorthand for a CallMethod carrying m.
func Call(m Method) CallMethod {
	return CallMethod{Method: mo.Some(m)}
}

// Notify is shorthand for a Received carrying e.
func Notify(e Event) Received {
	return Received{Event: mo.Some(e)}
}

// Reduce applies a to s and returns the follow-up actions to process next.
func Reduce(s *State, a Action) []Action {
	switch a := a.(type) {
	case CallMethod:
		s.Method = a.Method
		if a.Method.IsPresent() {
			return []Action{CallMethod{Method: mo.None[Method]()}}
		}

	case Received:
		s.Event = a.Event
		if a.Event.IsPresent() {
			return []Action{Received{Event: mo.None[Event]()}}
		}

	case LogReceived:
		if a.Log == nil {
			return nil
		}
		limit := s.HistoryLimit
		if limit <= 0 {
			limit = DefaultHistoryLimit
		}
		logs := make([]Log, 0, min(len(s.Logs)+1, limit))
		logs = append(logs, a.Log)
		for _, l := range s.Logs {
			if len(logs) == limit {
				break
			}
			logs = append(logs, l)
		}
		s.Logs = logs
	}
	return nil
}
