package notifications

import (
	"context"
	"log/slog"

	"wfm/internal/platform/realtime"
)

const EventNotification = "notification"

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Publisher interface {
	Publish(ctx context.Context, event realtime.Event)
}

type Service struct {
	store     StoreAPI
	Mailer    Mailer
	Publisher Publisher
	EmailFrom string
	EmailOn   bool
}

func New(store StoreAPI, mailer Mailer, publisher Publisher, emailFrom string, emailOn bool) *Service {
	return &Service{store: store, Mailer: mailer, Publisher: publisher, EmailFrom: emailFrom, EmailOn: emailOn}
}

// Create stores the notification, pushes it to the recipient's live
// connections and, when enabled, emails them. Email failures are logged
// and never fail the caller.
func (s *Service) Create(ctx context.Context, orgID, profileID, ntype, title, body string) error {
	n, err := s.store.CreateNotification(ctx, Notification{
		OrgID:     orgID,
		ProfileID: profileID,
		Type:      ntype,
		Title:     title,
		Body:      body,
	})
	if err != nil {
		return err
	}

	if s.Publisher != nil {
		s.Publisher.Publish(ctx, realtime.Event{
			Type:      EventNotification,
			OrgID:     orgID,
			UserID:    profileID,
			Payload:   n,
			CreatedAt: n.CreatedAt,
		})
	}

	if s.Mailer == nil || !s.EmailOn {
		return nil
	}
	email, err := s.store.ProfileEmail(ctx, orgID, profileID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.EmailFrom, email, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, orgID, profileID string, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	return s.store.ListNotifications(ctx, orgID, profileID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, orgID, profileID string) (int, error) {
	return s.store.UnreadCount(ctx, orgID, profileID)
}

func (s *Service) MarkRead(ctx context.Context, orgID, profileID, id string) error {
	return s.store.MarkRead(ctx, orgID, profileID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, orgID, profileID string) (int, error) {
	return s.store.MarkAllRead(ctx, orgID, profileID)
}

func (s *Service) Delete(ctx context.Context, orgID, profileID, id string) error {
	return s.store.Delete(ctx, orgID, profileID, id)
}
