package tuner

import "fmt"

// State is the connection state of the single active session. Exactly one
// value is active at a time; variants carry their own payload.
type State interface {
	connectionState()
}

// Disconnected means no session is active.
type Disconnected struct{}

// Connecting means resolution or the initial connect is in flight.
type Connecting struct{}

// Connected means the stream (local or external sink) is playing.
type Connected struct{}

// Reconnecting means a retry timer is armed after a non-manual disconnect.
type Reconnecting struct {
	Attempt int
}

// Failed is terminal for the current session; a new Play starts over.
type Failed struct {
	Message string
}

func (Disconnected) connectionState() {}
func (Connecting) connectionState()   {}
func (Connected) connectionState()    {}
func (Reconnecting) connectionState() {}
func (Failed) connectionState()       {}

type event interface {
	connectionEvent()
}

type evPlay struct{}
type evResolutionFailed struct{ reason string }
type evConnectSucceeded struct{}
type evExternalSinkConnected struct{}
type evDisconnected struct {
	reason string
	manual bool
}
type evRetryTimer struct{}
type evStop struct{}

func (evPlay) connectionEvent()                  {}
func (evResolutionFailed) connectionEvent()      {}
func (evConnectSucceeded) connectionEvent()      {}
func (evExternalSinkConnected) connectionEvent() {}
func (evDisconnected) connectionEvent()          {}
func (evRetryTimer) connectionEvent()            {}
func (evStop) connectionEvent()                  {}

// machine holds the connection state and enforces the transition table.
// Not safe for concurrent use; the tuner drives it from the event queue.
type machine struct {
	state       State
	attempts    int
	maxAttempts int
}

func newMachine(maxAttempts int) *machine {
	return &machine{
		state:       Disconnected{},
		maxAttempts: maxAttempts,
	}
}

// transition applies an event and returns the resulting state. Events that
// are invalid in the current state leave it unchanged.
func (m *machine) transition(ev event) State {
	switch e := ev.(type) {
	case evPlay:
		m.attempts = 0
		m.state = Connecting{}

	case evResolutionFailed:
		if _, ok := m.state.(Connecting); ok {
			m.state = Failed{Message: e.reason}
		}

	case evConnectSucceeded, evExternalSinkConnected:
		switch m.state.(type) {
		case Connecting, Reconnecting:
			m.attempts = 0
			m.state = Connected{}
		}

	case evDisconnected:
		switch m.state.(type) {
		case Connected, Connecting:
		default:
			return m.state
		}
		switch {
		case e.manual:
			m.state = Disconnected{}
		case m.attempts >= m.maxAttempts:
			m.state = Failed{Message: e.reason}
		default:
			m.attempts++
			m.state = Reconnecting{Attempt: m.attempts}
		}

	case evRetryTimer:
		if _, ok := m.state.(Reconnecting); ok {
			m.state = Connecting{}
		}

	case evStop:
		m.attempts = 0
		m.state = Disconnected{}
	}

	return m.state
}

// StatusText derives the human-readable status line from a state plus the
// last known station name and stream title.
func StatusText(st State, stationName, title string, maxAttempts int) string {
	switch s := st.(type) {
	case Connecting:
		return fmt.Sprintf("Connecting to %s…", stationName)
	case Reconnecting:
		return fmt.Sprintf("Reconnecting… (attempt %d/%d)", s.Attempt, maxAttempts)
	case Failed:
		return "Connection failed: " + s.Message
	case Connected:
		if title != "" {
			return title
		}
		return stationName
	default:
		return ""
	}
}
