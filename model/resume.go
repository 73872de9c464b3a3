package model

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// ResumePayload is what a resume event carries forward to the next invocation.
type ResumePayload struct {
	FailedCount int        `json:"failed_count"`
	ObjectType  ObjectType `json:"object_type,omitempty"`
}

// ResumeEvent is a delayed re-invocation of the bulk delete function.
// Next is the envelope a local worker replays; the platform rebuilds its own.
type ResumeEvent struct {
	EventType string        `json:"event_type"`
	SourceID  string        `json:"source_id"`
	Payload   ResumePayload `json:"payload"`
	PublishAt time.Time     `json:"publish_at"`
	Next      Event         `json:"next"`
}

// ScheduleEventRequest is the wire body of event-sources.schedule.
type ScheduleEventRequest struct {
	EventType string `json:"event_type"`
	ID        string `json:"id"`
	Payload   string `json:"payload"`
	PublishAt string `json:"publish_at"`
}

// ScheduleRequest encodes the payload as base64 JSON and the delivery time as RFC 3339.
func (r ResumeEvent) ScheduleRequest() (ScheduleEventRequest, error) {
	raw, err := json.Marshal(r.Payload)
	if err != nil {
		return ScheduleEventRequest{}, err
	}
	return ScheduleEventRequest{
		EventType: r.EventType,
		ID:        r.SourceID,
		Payload:   base64.StdEncoding.EncodeToString(raw),
		PublishAt: r.PublishAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// DecodeResumePayload reverses the payload encoding of ScheduleRequest.
func DecodeResumePayload(encoded string) (ResumePayload, error) {
	var payload ResumePayload
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return payload, err
	}
	err = json.Unmarshal(raw, &payload)
	return payload, err
}
