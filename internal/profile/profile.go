package profile

import (
	"context"
	"errors"
	"log/slog"

	"storefront/internal/api"
	"storefront/internal/models"
	"storefront/internal/session"
)

var ErrNotSignedIn = errors.New("profile updates require a signed-in user")

type Service struct {
	Client  *api.Client
	Session *session.Store
	Log     *slog.Logger
}

func New(client *api.Client, sess *session.Store, log *slog.Logger) *Service {
	return &Service{Client: client, Session: sess, Log: log}
}

// Update patches the user's profile fields and refreshes the persisted
// session identity with the server's view.
func (s *Service) Update(ctx context.Context, fields map[string]any) (models.User, error) {
	user := s.Session.Current()
	if user == nil {
		return models.User{}, ErrNotSignedIn
	}

	updated, err := s.Client.UpdateUser(ctx, user.ID, fields)
	if err != nil {
		return models.User{}, err
	}

	s.Session.SetUser(&updated)
	return updated, nil
}
