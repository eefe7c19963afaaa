// Package notify delivers fire-and-forget events after an engine transaction
// commits. Delivery failure is logged and never affects the committed state.
package notify

// Event types published by the engine.
const (
	EventInvitationSent       = "invitation_sent"
	EventInvitationAccepted   = "invitation_accepted"
	EventJoinRequestSubmitted = "join_request_submitted"
	EventJoinRequestApproved  = "join_request_approved"
	EventJoinRequestRejected  = "join_request_rejected"
	EventRequestSubmitted     = "request_submitted"
	EventRequestApproved      = "request_approved"
	EventRequestRejected      = "request_rejected"
	EventMemberDeactivated    = "member_deactivated"
	EventMemberActivated      = "member_activated"
	EventPointsAwarded        = "points_awarded"
)

// Event describes something that happened to a group or a user.
// UserID is the affected user; zero means the event is group-wide.
type Event struct {
	Type    string
	GroupID int64
	UserID  int64
	Title   string
	Body    string
}

type Notifier interface {
	Publish(Event)
}

// Func adapts a plain function into a Notifier.
type Func func(Event)

func (f Func) Publish(ev Event) { f(ev) }

// Multi fans an event out to several notifiers.
type Multi []Notifier

func (m Multi) Publish(ev Event) {
	for _, n := range m {
		n.Publish(ev)
	}
}
