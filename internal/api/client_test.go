package api_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pushkargithub0611/comm-module-goa/internal/api"
	"github.com/pushkargithub0611/comm-module-goa/internal/backendtest"
	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
	"github.com/pushkargithub0611/comm-module-goa/internal/demo"
)

func newClient(s *backendtest.Server, opts api.Options) *api.Client {
	opts.BaseURL = s.APIURL()
	c := api.NewClient(opts)
	c.SetToken(backendtest.Token)
	return c
}

func TestLoginInstallsToken(t *testing.T) {
	s := backendtest.New(t)
	c := api.NewClient(api.Options{BaseURL: s.APIURL()})

	resp, err := c.Login(context.Background(), "teacher@school.edu", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token != backendtest.Token {
		t.Fatalf("unexpected token %q", resp.Token)
	}
	if resp.User.ID != backendtest.UserID {
		t.Fatalf("unexpected user %+v", resp.User)
	}

	// the installed token authenticates subsequent calls
	if _, err := c.Groups(context.Background()); err != nil {
		t.Fatalf("groups after login: %v", err)
	}
}

func TestUnauthorizedFiresHookAndClearsNothingElse(t *testing.T) {
	s := backendtest.New(t)
	s.ForceUnauthorized(true)

	hookFired := 0
	c := newClient(s, api.Options{OnUnauthorized: func() { hookFired++ }})

	_, err := c.Groups(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if hookFired != 1 {
		t.Fatalf("hook fired %d times, want 1", hookFired)
	}
}

func TestSendAndListMessagesRoundtrip(t *testing.T) {
	s := backendtest.New(t)
	c := newClient(s, api.Options{})

	sent, err := c.SendMessage(context.Background(), "hello class", "g1")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.ID == "" || sent.GroupID != "g1" || sent.Content != "hello class" {
		t.Fatalf("unexpected created message: %+v", sent)
	}

	msgs, err := c.Messages(context.Background(), "g1", 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != sent.ID {
		t.Fatalf("unexpected history: %+v", msgs)
	}
}

func TestMessagesPaging(t *testing.T) {
	s := backendtest.New(t)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	var seeded []chat.Message
	for i := 0; i < 5; i++ {
		seeded = append(seeded, chat.Message{
			ID:        string(rune('a' + i)),
			GroupID:   "g1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	s.SeedMessages("g1", seeded)

	c := newClient(s, api.Options{})
	msgs, err := c.Messages(context.Background(), "g1", 2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "b" || msgs[1].ID != "c" {
		t.Fatalf("unexpected page: %+v", msgs)
	}
}

func TestMarkMessageRead(t *testing.T) {
	s := backendtest.New(t)
	c := newClient(s, api.Options{})

	if err := c.MarkMessageRead(context.Background(), "m42"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	marks := s.ReadMarks()
	if len(marks) != 1 || marks[0] != "m42" {
		t.Fatalf("unexpected read marks: %v", marks)
	}
}

func TestAllUsersFallsBackToPublicEndpoint(t *testing.T) {
	s := backendtest.New(t)
	s.SeedProfiles([]chat.Profile{{ID: "u1", FullName: "A"}, {ID: "u2", FullName: "B"}})
	s.FailAdminUsers(true)

	c := newClient(s, api.Options{})
	profiles, err := c.AllUsers(context.Background())
	if err != nil {
		t.Fatalf("all users: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %+v", profiles)
	}
}

func TestProfilesBatchLookup(t *testing.T) {
	s := backendtest.New(t)
	s.SeedProfiles([]chat.Profile{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}})

	c := newClient(s, api.Options{})
	profiles, err := c.Profiles(context.Background(), []string{"u1", "u3"})
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	if len(profiles) != 2 || profiles[0].ID != "u1" || profiles[1].ID != "u3" {
		t.Fatalf("unexpected profiles: %+v", profiles)
	}
}

func TestGroupMembership(t *testing.T) {
	s := backendtest.New(t)
	c := newClient(s, api.Options{})

	if err := c.AddGroupMember(context.Background(), "g1", "u2", ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := c.AddGroupMember(context.Background(), "g1", "u3", "admin"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := c.RemoveGroupMember(context.Background(), "g1", "u2"); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	members := s.Members("g1")
	if len(members) != 1 || members[0] != "u3" {
		t.Fatalf("unexpected members: %v", members)
	}
}

func TestFetchGroupsDegradesToDemoData(t *testing.T) {
	s := backendtest.New(t)
	dataset := demo.NewDataset()
	c := newClient(s, api.Options{Demo: dataset})
	s.Close() // backend goes away

	res, err := c.FetchGroups(context.Background())
	if err != nil {
		t.Fatalf("fetch groups: %v", err)
	}
	if !res.Degraded {
		t.Fatal("expected degraded result")
	}
	if len(res.Groups) == 0 {
		t.Fatal("expected demo groups")
	}
}

func TestFetchMessagesNeverDegradesOnUnauthorized(t *testing.T) {
	s := backendtest.New(t)
	s.ForceUnauthorized(true)

	c := newClient(s, api.Options{Demo: demo.NewDataset()})
	_, err := c.FetchMessages(context.Background(), "group1", 50, 0)
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFetchMessagesWithoutFallbackReturnsError(t *testing.T) {
	s := backendtest.New(t)
	c := newClient(s, api.Options{})
	s.Close()

	if _, err := c.FetchMessages(context.Background(), "g1", 50, 0); err == nil {
		t.Fatal("expected an error with no fallback configured")
	}
}
