package model

import "time"

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityInternal Visibility = "internal"
	VisibilityPrivate  Visibility = "private"
)

const (
	TimelineComment = "timeline_comment"

	BodyTypeText    = "text"
	BodyTypeSnapKit = "snap_kit"

	LabelDiscussions = "discussions"
)

// TimelineEntry is a comment posted on the snap-in's timeline.
type TimelineEntry struct {
	Object      string       `json:"object"`
	Type        string       `json:"type"`
	Body        string       `json:"body,omitempty"`
	BodyType    string       `json:"body_type,omitempty"`
	SnapKitBody *SnapKitBody `json:"snap_kit_body,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Visibility  Visibility   `json:"visibility"`
	PrivateTo   []string     `json:"private_to,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

type SnapKitBody struct {
	Body             SnapKitSnaps `json:"body"`
	SnapInActionName string       `json:"snap_in_action_name"`
	SnapInID         string       `json:"snap_in_id"`
}

type SnapKitSnaps struct {
	Snaps []Snap `json:"snaps"`
}

type Snap struct {
	Type     string     `json:"type"`
	Title    PlainText  `json:"title"`
	Elements []SnapForm `json:"elements"`
}

type PlainText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type SnapForm struct {
	Type         string        `json:"type"`
	ActionID     string        `json:"action_id"`
	ActionType   string        `json:"action_type"`
	Elements     []InputLayout `json:"elements"`
	SubmitAction SubmitButton  `json:"submit_action"`
}

type InputLayout struct {
	Type    string       `json:"type"`
	Element RadioElement `json:"element"`
}

type RadioElement struct {
	Type     string        `json:"type"`
	ActionID string        `json:"action_id"`
	Options  []RadioOption `json:"options"`
}

type RadioOption struct {
	Text        PlainText `json:"text"`
	Description PlainText `json:"description"`
	Value       string    `json:"value"`
}

type SubmitButton struct {
	Type     string    `json:"type"`
	ActionID string    `json:"action_id"`
	Style    string    `json:"style"`
	Text     PlainText `json:"text"`
	Value    string    `json:"value"`
}

func plainText(text string) PlainText {
	return PlainText{Type: "plain_text", Text: text}
}

// NewRadioOption builds a radio option whose label and value are the same string.
func NewRadioOption(value, description string) RadioOption {
	return RadioOption{Text: plainText(value), Description: plainText(description), Value: value}
}

// NewRadioCard builds a single-card form with one radio group and a submit button.
// Submissions are routed back to actionName on the snap-in.
func NewRadioCard(title, actionName, snapInID string, options []RadioOption) *SnapKitBody {
	return &SnapKitBody{
		SnapInActionName: actionName,
		SnapInID:         snapInID,
		Body: SnapKitSnaps{Snaps: []Snap{{
			Type:  "card",
			Title: plainText(title),
			Elements: []SnapForm{{
				Type:       "form",
				ActionID:   "user_form",
				ActionType: "remote",
				Elements: []InputLayout{{
					Type: "input_layout",
					Element: RadioElement{
						Type:     "radio_buttons",
						ActionID: "radio_buttons",
						Options:  options,
					},
				}},
				SubmitAction: SubmitButton{
					Type:     "button",
					ActionID: "submit",
					Style:    "primary",
					Text:     plainText("Submit"),
					Value:    "submit",
				},
			}},
		}}},
	}
}
