package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// ScheduledEventsSource is the event_sources key the resume events are published to.
	ScheduledEventsSource = "scheduled-events"

	FunctionBulkDelete    = "bulk_delete_all"
	FunctionSelectionForm = "snap_kit_template"
)

// Event is the envelope the host runtime delivers to a snap-in function.
// Every field is optional on the wire; accessors document the defaults.
type Event struct {
	ExecutionMetadata ExecutionMetadata `json:"execution_metadata"`
	Context           EventContext      `json:"context"`
	Payload           EventPayload      `json:"payload"`
	InputData         InputData         `json:"input_data"`
}

type ExecutionMetadata struct {
	DevrevEndpoint string `json:"devrev_endpoint"`
	FunctionName   string `json:"function_name"`
	RequestID      string `json:"request_id,omitempty"`
}

type EventContext struct {
	SnapInID string  `json:"snap_in_id"`
	UserID   string  `json:"user_id"`
	Secrets  Secrets `json:"secrets"`
}

type Secrets struct {
	ServiceAccountToken string `json:"service_account_token,omitempty"`
}

type EventPayload struct {
	ActorID     string         `json:"actor_id,omitempty"`
	SourceID    string         `json:"source_id,omitempty"`
	Context     *ThreadContext `json:"context,omitempty"`
	Action      *FormAction    `json:"action,omitempty"`
	FailedCount *int           `json:"failed_count,omitempty"`
	ObjectType  string         `json:"object_type,omitempty"`
}

// ThreadContext identifies the timeline entry the user interacted with.
type ThreadContext struct {
	EntryID string `json:"entry_id,omitempty"`
}

// FormAction mirrors action.value.radio_buttons.value.value of a submitted snap-kit form.
type FormAction struct {
	ID    string          `json:"id,omitempty"`
	Value FormActionValue `json:"value"`
}

type FormActionValue struct {
	RadioButtons *RadioButtons `json:"radio_buttons,omitempty"`
}

type RadioButtons struct {
	Value RadioValue `json:"value"`
}

type RadioValue struct {
	Value string `json:"value"`
}

type InputData struct {
	GlobalValues GlobalValues      `json:"global_values"`
	EventSources map[string]string `json:"event_sources,omitempty"`
}

// GlobalValues are the snap-in inputs configured by the admin plus the
// session values written back between invocations.
type GlobalValues struct {
	FailedCount int        `json:"failed_count"`
	AccessGroup string     `json:"access_group,omitempty"`
	ObjectType  string     `json:"object_type,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Validation  Validation `json:"validation,omitempty"`
}

// ThreadID returns the confirmation thread id, or "" when the event did not come from a thread.
func (e Event) ThreadID() string {
	if e.Payload.Context == nil {
		return ""
	}
	return e.Payload.Context.EntryID
}

// FormValue returns the submitted radio button value, or "".
func (e Event) FormValue() string {
	if e.Payload.Action == nil || e.Payload.Action.Value.RadioButtons == nil {
		return ""
	}
	return e.Payload.Action.Value.RadioButtons.Value.Value
}

// ScheduledSourceID returns the event source used to publish resume events.
func (e Event) ScheduledSourceID() string {
	return e.InputData.EventSources[ScheduledEventsSource]
}

// CarriedFailedCount prefers the count carried in a resume payload over the stored value.
func (e Event) CarriedFailedCount() int {
	if e.Payload.FailedCount != nil {
		return *e.Payload.FailedCount
	}
	return e.InputData.GlobalValues.FailedCount
}

// Actor returns the acting user. Command invocations carry actor_id, form submissions user_id.
func (e Event) Actor() string {
	if e.Payload.ActorID != "" {
		return e.Payload.ActorID
	}
	return e.Context.UserID
}

// Token returns the service account token shipped with the event.
func (e Event) Token() string {
	return e.Context.Secrets.ServiceAccountToken
}

// WithoutSecrets returns a copy safe to persist in a queue.
func (e Event) WithoutSecrets() Event {
	e.Context.Secrets = Secrets{}
	return e
}

func (e *Event) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Context, validation.By(func(value interface{}) error {
			ctx, _ := value.(EventContext)
			if ctx.SnapInID == "" {
				return errors.New("snap_in_id is required")
			}
			return nil
		})),
		validation.Field(&e.Payload, validation.By(func(value interface{}) error {
			if e.Actor() == "" {
				return errors.New("either context.user_id or payload.actor_id is required")
			}
			return nil
		})),
	)
}
