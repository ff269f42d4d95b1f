package domain

import (
	"fmt"
	"time"
)

// Channel is the delivery channel of a notification job.
type Channel string

// Delivery channels.
const (
	// ChannelHTTP replies synchronously to the caller.
	ChannelHTTP Channel = "http"

	// ChannelEmail sends the verdict by email.
	ChannelEmail Channel = "email"
)

// IsValid returns true if the channel is recognised.
func (c Channel) IsValid() bool {
	return c == ChannelHTTP || c == ChannelEmail
}

// JobState is a state of the notification job state machine.
type JobState string

// Job states.
const (
	JobCreated              JobState = "created"
	JobClassifying          JobState = "classifying"
	JobClassified           JobState = "classified"
	JobClassificationFailed JobState = "classification_failed"
	JobDispatching          JobState = "dispatching"
	JobDelivered            JobState = "delivered"
	JobDeliveryFailed       JobState = "delivery_failed"
)

// transitions lists the allowed successors of each state.
var transitions = map[JobState][]JobState{
	JobCreated:     {JobClassifying},
	JobClassifying: {JobClassified, JobClassificationFailed},
	JobClassified:  {JobDispatching},
	JobDispatching: {JobDelivered, JobDeliveryFailed},
}

// IsTerminal reports whether no transition leaves the state.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobDelivered, JobDeliveryFailed, JobClassificationFailed:
		return true
	default:
		return false
	}
}

// IsValid returns true if the state is recognised.
func (s JobState) IsValid() bool {
	if s.IsTerminal() {
		return true
	}
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to JobState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns nil if from -> to is allowed.
func CheckTransition(from, to JobState) error {
	if from.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrJobTerminal, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// NotificationJob is one triage request travelling through classification and dispatch.
type NotificationJob struct {
	// ID is the unique identifier for the job.
	ID string

	// Destination is the email address to notify. Required for ChannelEmail.
	Destination string

	// Subject is the email subject.
	Subject string

	// SourceName is the name of the document being triaged.
	SourceName string

	// Body is the classification result to deliver.
	Body *ClassificationResult

	// Channel is the delivery channel.
	Channel Channel

	// State is the current state.
	State JobState

	// HTMLEmail requests an HTML alternative for email notifications.
	HTMLEmail bool

	// CreatedAt is when the job was created.
	CreatedAt time.Time

	// UpdatedAt is when the job last changed state.
	UpdatedAt time.Time
}

// Transition moves the job to the next state, enforcing the state machine.
func (j *NotificationJob) Transition(to JobState, at time.Time) error {
	if err := CheckTransition(j.State, to); err != nil {
		return err
	}
	j.State = to
	j.UpdatedAt = at
	return nil
}

// JobRecord is the persisted view of a job: identity, state and channel only.
// Analyses are never persisted.
type JobRecord struct {
	ID        string
	Channel   Channel
	State     JobState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record returns the persisted view of the job.
func (j *NotificationJob) Record() JobRecord {
	return JobRecord{
		ID:        j.ID,
		Channel:   j.Channel,
		State:     j.State,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// DeliveryReceipt is the outcome of a successful dispatch.
type DeliveryReceipt struct {
	// JobID identifies the delivered job.
	JobID string `json:"job_id"`

	// Channel is the channel used.
	Channel Channel `json:"channel"`

	// Destination is the address notified, empty for ChannelHTTP.
	Destination string `json:"destination,omitempty"`

	// MessageID is the transport's message identifier, if any.
	MessageID string `json:"message_id,omitempty"`

	// Reply is the structured reply for ChannelHTTP.
	Reply *Reply `json:"reply,omitempty"`

	// DeliveredAt is when delivery completed.
	DeliveredAt time.Time `json:"delivered_at"`
}

// Reply statuses.
const (
	StatusSuccess = "Sucesso"
)

// Reply is the structured synchronous reply rendered for ChannelHTTP.
type Reply struct {
	Status   string                `json:"status"`
	File     string                `json:"file,omitempty"`
	Email    string                `json:"email,omitempty"`
	Analysis string                `json:"analysis,omitempty"`
	Message  string                `json:"message,omitempty"`
	Result   *ClassificationResult `json:"result,omitempty"`
}

// StateMismatch reports a transition attempted from a state the job is no longer in.
// A terminal current state yields ErrJobTerminal, anything else ErrInvalidTransition.
func StateMismatch(id string, current, expected JobState) error {
	if current.IsTerminal() {
		return fmt.Errorf("%w: job %s is %s", ErrJobTerminal, id, current)
	}
	return fmt.Errorf("%w: job %s is %s, not %s", ErrInvalidTransition, id, current, expected)
}
