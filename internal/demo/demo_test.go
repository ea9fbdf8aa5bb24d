package demo

import (
	"testing"
	"time"
)

func TestDatasetShape(t *testing.T) {
	d := NewDataset()

	if got := len(d.Groups()); got != 4 {
		t.Fatalf("expected 4 groups, got %d", got)
	}
	if got := len(d.Messages("group1")); got != 2 {
		t.Fatalf("expected 2 messages in group1, got %d", got)
	}
	if got := len(d.Messages("missing")); got != 0 {
		t.Fatalf("unknown group should be empty, got %d", got)
	}
	if got := len(d.Notifications()); got != 3 {
		t.Fatalf("expected 3 notifications, got %d", got)
	}
	if _, ok := d.Profile(CurrentUserID); !ok {
		t.Fatal("current user profile missing")
	}
}

func TestMessagesAreOldestFirst(t *testing.T) {
	d := NewDataset()

	for _, groupID := range []string{"group1", "chat1", "chat2"} {
		msgs := d.Messages(groupID)
		for i := 1; i < len(msgs); i++ {
			if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
				t.Fatalf("group %s not oldest-first at index %d", groupID, i)
			}
		}
	}
}

func TestProfilesSkipUnknownIDs(t *testing.T) {
	d := NewDataset()

	profiles := d.Profiles([]string{"user1", "ghost", "user2"})
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %+v", profiles)
	}
	if profiles[0].ID != "user1" || profiles[1].ID != "user2" {
		t.Fatalf("unexpected order: %+v", profiles)
	}
}

func TestAddMessageMintsLocalID(t *testing.T) {
	d := NewDataset()
	before := len(d.Messages("group1"))

	msg := d.AddMessage("local note", "group1")
	if msg.ID == "" || msg.SenderID != CurrentUserID {
		t.Fatalf("unexpected minted message: %+v", msg)
	}
	if msg.CreatedAt.After(time.Now()) {
		t.Fatal("minted timestamp in the future")
	}
	if got := len(d.Messages("group1")); got != before+1 {
		t.Fatalf("message not appended: %d", got)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	d := NewDataset()

	d.MarkNotificationRead("notif1")
	for _, n := range d.Notifications() {
		if n.ID == "notif1" && !n.Read {
			t.Fatal("notif1 still unread")
		}
	}
}
