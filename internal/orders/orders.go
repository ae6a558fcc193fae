package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront/internal/api"
	"storefront/internal/models"
	"storefront/internal/store"
)

var ErrNotSignedIn = errors.New("orders require a signed-in user")

// NotCancellableError is raised locally; the request is never sent.
type NotCancellableError struct {
	Status models.OrderStatus
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("order with status %q cannot be cancelled", e.Status)
}

// CanCancel reports whether the UI should offer cancellation at all.
func CanCancel(status models.OrderStatus) bool {
	return status == models.OrderPending || status == models.OrderProcessing
}

type Service struct {
	Client  *api.Client
	Session store.UserSource
	Log     *slog.Logger
}

func New(client *api.Client, session store.UserSource, log *slog.Logger) *Service {
	return &Service{Client: client, Session: session, Log: log}
}

func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	user := s.Session.Current()
	if user == nil {
		return nil, ErrNotSignedIn
	}
	return s.Client.Orders(ctx, user.ID)
}

// Cancel moves an order to cancelled. Only pending and processing orders
// qualify; anything else is rejected before a request goes out.
func (s *Service) Cancel(ctx context.Context, order models.Order) (models.Order, error) {
	if s.Session.Current() == nil {
		return models.Order{}, ErrNotSignedIn
	}
	if !CanCancel(order.Status) {
		return models.Order{}, &NotCancellableError{Status: order.Status}
	}
	return s.Client.PatchOrder(ctx, order.ID, map[string]any{"status": models.OrderCancelled})
}

// Delete removes an order unconditionally.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if s.Session.Current() == nil {
		return ErrNotSignedIn
	}
	return s.Client.DeleteOrder(ctx, id)
}
