package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"wfm/internal/platform/realtime"
)

type fakeNotificationStore struct {
	created []Notification
	emails  map[string]string
	read    []string
}

func (f *fakeNotificationStore) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	n.ID = "n-1"
	n.CreatedAt = time.Now()
	f.created = append(f.created, n)
	return n, nil
}

func (f *fakeNotificationStore) ListNotifications(ctx context.Context, orgID, profileID string, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	return f.created, len(f.created), nil
}

func (f *fakeNotificationStore) UnreadCount(ctx context.Context, orgID, profileID string) (int, error) {
	return len(f.created), nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, orgID, profileID, id string) error {
	f.read = append(f.read, id)
	return nil
}

func (f *fakeNotificationStore) MarkAllRead(ctx context.Context, orgID, profileID string) (int, error) {
	return len(f.created), nil
}

func (f *fakeNotificationStore) Delete(ctx context.Context, orgID, profileID, id string) error {
	return nil
}

func (f *fakeNotificationStore) ProfileEmail(ctx context.Context, orgID, profileID string) (string, error) {
	email, ok := f.emails[profileID]
	if !ok {
		return "", ErrNotFound
	}
	return email, nil
}

type captureMailer struct {
	sent    []string
	sendErr error
}

func (m *captureMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to)
	return nil
}

type capturePublisher struct {
	events []realtime.Event
}

func (c *capturePublisher) Publish(ctx context.Context, event realtime.Event) {
	c.events = append(c.events, event)
}

func TestCreateNotifiesAllChannels(t *testing.T) {
	store := &fakeNotificationStore{emails: map[string]string{"alice": "alice@example.com"}}
	mailer := &captureMailer{}
	publisher := &capturePublisher{}
	svc := New(store, mailer, publisher, "no-reply@example.com", true)

	if err := svc.Create(context.Background(), "org-1", "alice", TypePTOApproved, "PTO approved", "Enjoy!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatal("expected a stored notification")
	}
	if len(publisher.events) != 1 || publisher.events[0].UserID != "alice" {
		t.Fatalf("unexpected events: %+v", publisher.events)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "alice@example.com" {
		t.Fatalf("unexpected mail: %v", mailer.sent)
	}
}

func TestCreateSurvivesEmailFailure(t *testing.T) {
	store := &fakeNotificationStore{emails: map[string]string{"alice": "alice@example.com"}}
	mailer := &captureMailer{sendErr: errors.New("smtp down")}
	svc := New(store, mailer, &capturePublisher{}, "no-reply@example.com", true)

	if err := svc.Create(context.Background(), "org-1", "alice", TypeSwapRequested, "Swap", "..."); err != nil {
		t.Fatalf("expected mail failure to be swallowed, got %v", err)
	}
}

func TestCreateSkipsEmailWhenDisabled(t *testing.T) {
	store := &fakeNotificationStore{emails: map[string]string{"alice": "alice@example.com"}}
	mailer := &captureMailer{}
	svc := New(store, mailer, &capturePublisher{}, "no-reply@example.com", false)

	if err := svc.Create(context.Background(), "org-1", "alice", TypeSwapRequested, "Swap", "..."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no mail, got %v", mailer.sent)
	}
}
