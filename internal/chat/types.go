package chat

import "time"

// Message is a chat message as the backend serves it. IDs are opaque strings
// assigned server-side; timestamps are RFC3339 in the JSON representation.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	GroupID   string    `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is a named chat scope: a multi-member group or a two-party
// individual chat.
type Group struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	GroupType          string    `json:"group_type"` // class, department, custom
	ChatType           string    `json:"chat_type"`  // group, individual
	OrganizationalUnit string    `json:"organizational_unit"`
	CreatedAt          time.Time `json:"created_at"`
	CreatedBy          string    `json:"created_by,omitempty"`
}

// Profile is the directory entry for a user.
type Profile struct {
	ID                 string     `json:"id"`
	FullName           string     `json:"full_name"`
	AvatarURL          string     `json:"avatar_url"`
	Role               string     `json:"role"`
	OrganizationalUnit string     `json:"organizational_unit"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// User is the authenticated account returned by login/register.
type User struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	FullName           string `json:"full_name"`
	Role               string `json:"role"`
	OrganizationalUnit string `json:"organizational_unit,omitempty"`
	AvatarURL          string `json:"avatar_url,omitempty"`
}

// Notification is an inbox notification entry.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // assignment, reminder, message
	Read      bool      `json:"read"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
