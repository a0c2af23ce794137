package core

// Metrics receives hub activity. Implementations must be safe for concurrent use.
type Metrics interface {
	RoomOpened()
	RoomClosed()
	ParticipantJoined()
	ParticipantLeft()
	CommandHandled(kind string)
	EventDropped(kind, reason string)
	ClientEvicted()
}

type nopMetrics struct{}

func (nopMetrics) RoomOpened()                 {}
func (nopMetrics) RoomClosed()                 {}
func (nopMetrics) ParticipantJoined()          {}
func (nopMetrics) ParticipantLeft()            {}
func (nopMetrics) CommandHandled(string)       {}
func (nopMetrics) EventDropped(string, string) {}
func (nopMetrics) ClientEvicted()              {}
