package model

type WorkType string

const (
	WorkTypeTicket      WorkType = "ticket"
	WorkTypeIssue       WorkType = "issue"
	WorkTypeOpportunity WorkType = "opportunity"
)

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TagWithValue struct {
	Tag Tag `json:"tag"`
}

type Work struct {
	ID        string         `json:"id"`
	DisplayID string         `json:"display_id,omitempty"`
	Type      WorkType       `json:"type"`
	Title     string         `json:"title,omitempty"`
	Tags      []TagWithValue `json:"tags,omitempty"`
}

type Account struct {
	ID          string         `json:"id"`
	DisplayID   string         `json:"display_id,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
	Tags        []TagWithValue `json:"tags,omitempty"`
}

// RevOrg is a customer workspace that belongs to an account.
type RevOrg struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// RevUser is a customer contact.
type RevUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name,omitempty"`
	Email       string         `json:"email,omitempty"`
	Tags        []TagWithValue `json:"tags,omitempty"`
}

type GroupMember struct {
	Member MemberRef `json:"member"`
}

type MemberRef struct {
	ID string `json:"id"`
}

// ListRequest is the common paginated filter used by every list call.
type ListRequest struct {
	Tags   []string `json:"tags,omitempty"`
	Cursor string   `json:"cursor,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

type ListWorksRequest struct {
	ListRequest
	Type          []WorkType `json:"type,omitempty"`
	TicketRevOrgs []string   `json:"ticket.rev_org,omitempty"`
}

type WorksPage struct {
	Works      []Work `json:"works"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type AccountsPage struct {
	Accounts   []Account `json:"accounts"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type RevUsersPage struct {
	RevUsers   []RevUser `json:"rev_users"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
