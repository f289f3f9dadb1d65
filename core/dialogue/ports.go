package dialogue

import (
	"context"
	"time"
)

// UserID is a platform user identifier.
type UserID string

// MessageRef identifies a platform message.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// IsZero reports whether the ref points nowhere.
func (r MessageRef) IsZero() bool {
	return r.ChannelID == "" && r.MessageID == ""
}

// Kind distinguishes component interactions.
type Kind int

const (
	// KindSelection is a choice made in a selection menu.
	KindSelection Kind = iota + 1
	// KindButtonPress is a press of an action button.
	KindButtonPress
)

func (k Kind) String() string {
	switch k {
	case KindSelection:
		return "selection"
	case KindButtonPress:
		return "button"
	default:
		return "unknown"
	}
}

// Interaction is an inbound component event. Payload holds the chosen option
// value or the pressed button id. Handle is the platform object needed to
// answer the interaction; the core never inspects it.
type Interaction struct {
	ID      string
	Kind    Kind
	Actor   UserID
	Message MessageRef
	Payload string
	Handle  any
}

// NewMessage is an inbound chat message.
type NewMessage struct {
	ID        string
	Author    UserID
	ChannelID string
	Body      string
	Platform  string
}

// ResponseKind selects how an interaction is answered.
type ResponseKind int

const (
	// ResponseUpdateOrigin edits the message the component lives on.
	ResponseUpdateOrigin ResponseKind = iota + 1
	// ResponseNewReply posts a new message in answer to the interaction.
	ResponseNewReply
)

// Response answers one interaction.
type Response struct {
	Kind      ResponseKind
	Prompt    Prompt
	Ephemeral bool
}

// Sender performs the outbound platform calls: send direct message, edit
// message, reply, respond to an interaction and delete message. Flow edits
// through Respond with ResponseUpdateOrigin, which acknowledges the
// interaction too; Edit rewrites a message outside any interaction and fails
// with a DeliveryError when the message is gone. Delete must treat an already
// removed message as success.
type Sender interface {
	SendDirect(ctx context.Context, to UserID, p Prompt) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, p Prompt) error
	Reply(ctx context.Context, ref MessageRef, text string) error
	Respond(ctx context.Context, in Interaction, r Response) error
	Delete(ctx context.Context, ref MessageRef) error
}

// Filter selects interactions targeting Message, made by Actor, of Kind.
type Filter struct {
	Message MessageRef
	Actor   UserID
	Kind    Kind
}

// Match reports whether in satisfies every field of the filter.
func (f Filter) Match(in Interaction) bool {
	return in.Message == f.Message && in.Actor == f.Actor && in.Kind == f.Kind
}

// Subscription is a stream of matching interactions bounded by a window.
// Events is closed when the window elapses, the source closes the stream or
// Close is called; Err then tells which.
type Subscription interface {
	Events() <-chan Interaction
	Close()
	Err() error
}

// EventSource delivers component interactions to waiting sessions.
// Await returns the first match or ErrWaitTimeout / ErrStreamClosed.
type EventSource interface {
	Await(ctx context.Context, f Filter, timeout time.Duration) (Interaction, error)
	Subscribe(ctx context.Context, f Filter, timeout time.Duration) Subscription
}

// SessionRecord summarises a finished session.
type SessionRecord struct {
	ID               string
	Platform         string
	Owner            UserID
	TriggerMessageID string
	Selected         string
	Actions          int
	Outcome          Outcome
	Err              string
	StartedAt        time.Time
	EndedAt          time.Time
}

// Recorder keeps the history of finished sessions.
type Recorder interface {
	Record(ctx context.Context, rec SessionRecord) error
}
