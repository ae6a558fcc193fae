package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/api"
	"storefront/internal/models"
	"storefront/internal/store"
)

var (
	ErrNotSignedIn = errors.New("checkout requires a signed-in user")
	ErrEmptyCart   = errors.New("cart is empty")
)

// InsufficientStockError aborts checkout before any network call.
type InsufficientStockError struct {
	Product   models.Product
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s. Available: %d", e.Product.Name, e.Product.Stock)
}

type Service struct {
	Client  *api.Client
	Session store.UserSource
	Cart    *store.Cart
	Log     *slog.Logger
}

func New(client *api.Client, session store.UserSource, cart *store.Cart, log *slog.Logger) *Service {
	return &Service{Client: client, Session: session, Cart: cart, Log: log}
}

// Checkout turns the cart into an order: validate stock against the
// in-memory snapshots, create the order, best-effort decrement each
// product's stock, then clear the cart. The multi-step flow is not
// atomic; stock decrement failures are logged and skipped per item.
func (s *Service) Checkout(ctx context.Context) (models.Order, error) {
	user := s.Session.Current()
	if user == nil {
		return models.Order{}, ErrNotSignedIn
	}

	items := s.Cart.Items()
	if len(items) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	for _, item := range items {
		if item.Quantity > item.Product.Stock {
			return models.Order{}, &InsufficientStockError{Product: item.Product, Requested: item.Quantity}
		}
	}

	order := models.Order{
		UserID: user.ID,
		Items:  make([]models.OrderItem, 0, len(items)),
		Total:  s.Cart.TotalPrice(),
		Date:   time.Now().UTC(),
		Status: models.OrderPending,
	}
	for _, item := range items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Product:   item.Product,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		})
	}

	created, err := s.Client.CreateOrder(ctx, order)
	if err != nil {
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}

	for _, item := range items {
		product, err := s.Client.Product(ctx, item.ProductID)
		if err != nil {
			s.Log.Error("fetch product for stock update", "product", item.ProductID, "error", err)
			continue
		}
		newStock := product.Stock - item.Quantity
		if newStock < 0 {
			continue
		}
		if _, err := s.Client.PatchProduct(ctx, item.ProductID, map[string]any{"stock": newStock}); err != nil {
			s.Log.Error("update product stock", "product", item.ProductID, "error", err)
		}
	}

	s.Cart.Clear(ctx)
	return created, nil
}
