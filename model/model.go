package model

import (
	"fmt"
	"strings"
)

// ObjectType is the family of business objects a session deletes.
type ObjectType string

const (
	ObjectTickets       ObjectType = "Tickets"
	ObjectIssues        ObjectType = "Issues"
	ObjectOpportunities ObjectType = "Opportunities"
	ObjectAccounts      ObjectType = "Accounts"
	ObjectContacts      ObjectType = "Contacts"
)

// ObjectTypes lists the selectable object types in the order the selection card shows them.
var ObjectTypes = []ObjectType{ObjectTickets, ObjectIssues, ObjectAccounts, ObjectContacts, ObjectOpportunities}

// ParseObjectType accepts the exact option values of the selection card.
func ParseObjectType(value string) (ObjectType, error) {
	for _, t := range ObjectTypes {
		if string(t) == value {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid object type: %q", value)
}

// IsWork reports whether the type is listed through the works endpoints.
func (t ObjectType) IsWork() bool {
	return t == ObjectTickets || t == ObjectIssues || t == ObjectOpportunities
}

// WorkType maps a work object type to the platform work type.
func (t ObjectType) WorkType() (WorkType, error) {
	switch t {
	case ObjectTickets:
		return WorkTypeTicket, nil
	case ObjectIssues:
		return WorkTypeIssue, nil
	case ObjectOpportunities:
		return WorkTypeOpportunity, nil
	}
	return "", fmt.Errorf("object type %s is not a work type", t)
}

// Confirmation is the user's answer on the Yes/No card.
type Confirmation int

const (
	Unanswered Confirmation = iota
	Confirmed
	Cancelled
)

// ParseConfirmation maps the radio value to a confirmation. Anything other than Yes/No is Unanswered.
func ParseConfirmation(value string) Confirmation {
	switch strings.TrimSpace(value) {
	case "Yes":
		return Confirmed
	case "No":
		return Cancelled
	}
	return Unanswered
}

func (c Confirmation) String() string {
	switch c {
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	}
	return "unanswered"
}

// Validation is the stored confirmation flag. The string values are what
// the platform keeps in the snap-in inputs.
type Validation string

const (
	ValidationUnset   Validation = ""
	ValidationPending Validation = "Not Set"
	ValidationCleared Validation = "None"
)

// StoredValues are the session values that survive between invocations.
type StoredValues struct {
	ObjectType  ObjectType `json:"object_type"`
	FailedCount int        `json:"failed_count"`
	Validation  Validation `json:"validation"`
}
