// Package demo provides the fixed dataset served when the backend is
// unreachable. Read paths degrade to it instead of failing outright; writes
// against it are process-local and never reach the server.
package demo

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

// CurrentUserID identifies the demo viewer in the dataset.
const CurrentUserID = "current_user"

// Dataset is an in-memory stand-in for the backend's directory, groups,
// messages, and notifications.
type Dataset struct {
	mu            sync.Mutex
	profiles      map[string]chat.Profile
	groups        []chat.Group
	messages      map[string][]chat.Message
	notifications []chat.Notification
}

// NewDataset builds the demo dataset with timestamps relative to now.
func NewDataset() *Dataset {
	now := time.Now()
	ts := func(ago time.Duration) time.Time { return now.Add(-ago) }

	profiles := map[string]chat.Profile{
		"user1":       demoProfile("user1", "John Smith", "teacher", "Grade 10", now),
		"user2":       demoProfile("user2", "Sarah Johnson", "student", "Grade 10", now),
		"user3":       demoProfile("user3", "Tech Support", "admin", "IT Department", now),
		CurrentUserID: demoProfile(CurrentUserID, "Current User", "administrator", "Grade 10", now),
	}

	groups := []chat.Group{
		{
			ID:                 "group1",
			Name:               "Grade 10 Announcements",
			Description:        "Important announcements for Grade 10 students and teachers",
			ChatType:           "group",
			GroupType:          "class",
			OrganizationalUnit: "Grade 10",
			CreatedAt:          now,
			CreatedBy:          "user1",
		},
		{
			ID:                 "group2",
			Name:               "Math Department",
			Description:        "Discussion group for math teachers",
			ChatType:           "group",
			GroupType:          "department",
			OrganizationalUnit: "Math Department",
			CreatedAt:          now,
			CreatedBy:          "user1",
		},
		{
			ID:        "chat1",
			Name:      "John Smith",
			ChatType:  "individual",
			GroupType: "custom",
			CreatedAt: now,
			CreatedBy: CurrentUserID,
		},
		{
			ID:        "chat2",
			Name:      "Sarah Johnson",
			ChatType:  "individual",
			GroupType: "custom",
			CreatedAt: now,
			CreatedBy: CurrentUserID,
		},
	}

	messages := map[string][]chat.Message{
		"group1": {
			demoMessage("msg1", "Welcome to the Grade 10 Announcements group!", "user1", "group1", ts(48*time.Hour)),
			demoMessage("msg2", "Remember to submit your assignments by Friday.", "user1", "group1", ts(24*time.Hour)),
		},
		"group2": {
			demoMessage("msg3", "Let's discuss the new math curriculum.", "user1", "group2", ts(72*time.Hour)),
		},
		"chat1": {
			demoMessage("msg4", "Hi, do you have a moment to discuss the project?", "user1", "chat1", ts(time.Hour)),
			demoMessage("msg5", "Sure, what do you need help with?", CurrentUserID, "chat1", ts(58*time.Minute)),
		},
		"chat2": {
			demoMessage("msg6", "Have you completed the assignment?", CurrentUserID, "chat2", ts(2*time.Hour)),
			demoMessage("msg7", "Yes, I'll submit it today.", "user2", "chat2", ts(118*time.Minute)),
		},
	}

	notifications := []chat.Notification{
		demoNotification("notif1", "New Assignment", "You have a new math assignment due next week.", "assignment", false, ts(time.Hour)),
		demoNotification("notif2", "Meeting Reminder", "Parent-teacher meeting tomorrow at 3 PM.", "reminder", true, ts(24*time.Hour)),
		demoNotification("notif3", "New Message", "You have a new message from Sarah Johnson.", "message", false, ts(2*time.Hour)),
	}

	return &Dataset{
		profiles:      profiles,
		groups:        groups,
		messages:      messages,
		notifications: notifications,
	}
}

// Groups returns the demo group list.
func (d *Dataset) Groups() []chat.Group {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]chat.Group, len(d.groups))
	copy(out, d.groups)
	return out
}

// Messages returns the demo messages for a group, oldest first.
func (d *Dataset) Messages(groupID string) []chat.Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	msgs := d.messages[groupID]
	out := make([]chat.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Profiles returns the demo profiles for the given user ids, skipping
// unknown ids. With no ids it returns every profile.
func (d *Dataset) Profiles(userIDs []string) []chat.Profile {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(userIDs) == 0 {
		out := make([]chat.Profile, 0, len(d.profiles))
		for _, p := range d.profiles {
			out = append(out, p)
		}
		return out
	}

	out := make([]chat.Profile, 0, len(userIDs))
	for _, id := range userIDs {
		if p, ok := d.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Profile returns one demo profile.
func (d *Dataset) Profile(userID string) (chat.Profile, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.profiles[userID]
	return p, ok
}

// Notifications returns the demo notification list.
func (d *Dataset) Notifications() []chat.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]chat.Notification, len(d.notifications))
	copy(out, d.notifications)
	return out
}

// AddMessage appends a locally minted message for demo-mode sends.
func (d *Dataset) AddMessage(content, groupID string) chat.Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	msg := chat.Message{
		ID:        uuid.NewString(),
		Content:   content,
		SenderID:  CurrentUserID,
		GroupID:   groupID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.messages[groupID] = append(d.messages[groupID], msg)
	return msg
}

// AddGroup appends a locally minted group for demo-mode creation.
func (d *Dataset) AddGroup(g chat.Group) chat.Group {
	d.mu.Lock()
	defer d.mu.Unlock()

	if g.ID == "" {
		g.ID = "mock-" + uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	if g.CreatedBy == "" {
		g.CreatedBy = CurrentUserID
	}
	d.groups = append(d.groups, g)
	return g
}

// MarkNotificationRead flips a notification's read flag.
func (d *Dataset) MarkNotificationRead(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.notifications {
		if d.notifications[i].ID == id {
			d.notifications[i].Read = true
			return
		}
	}
}

func demoProfile(id, name, role, unit string, now time.Time) chat.Profile {
	created := now
	return chat.Profile{
		ID:                 id,
		FullName:           name,
		Role:               role,
		OrganizationalUnit: unit,
		CreatedAt:          &created,
		UpdatedAt:          &created,
	}
}

func demoMessage(id, content, senderID, groupID string, at time.Time) chat.Message {
	return chat.Message{
		ID:        id,
		Content:   content,
		SenderID:  senderID,
		GroupID:   groupID,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func demoNotification(id, title, message, kind string, read bool, at time.Time) chat.Notification {
	return chat.Notification{
		ID:        id,
		Title:     title,
		Message:   message,
		Type:      kind,
		Read:      read,
		UserID:    CurrentUserID,
		CreatedAt: at,
		UpdatedAt: at,
	}
}
