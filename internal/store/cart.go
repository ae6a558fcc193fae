package store

import (
	"context"
	"log/slog"
	"sync"

	"storefront/internal/api"
	"storefront/internal/models"
)

// UserSource yields the signed-in user, nil when unauthenticated.
// *session.Store satisfies it.
type UserSource interface {
	Current() *models.User
}

// Cart mirrors the user's remote cart and keeps it in sync through
// optimistic updates: mutate locally first, then issue the remote call,
// and either roll back or silently reload when it fails.
type Cart struct {
	Client  *api.Client
	Session UserSource
	Log     *slog.Logger

	mu      sync.Mutex
	items   []models.CartItem
	loading bool
}

func NewCart(client *api.Client, session UserSource, log *slog.Logger) *Cart {
	return &Cart{Client: client, Session: session, Log: log}
}

// Items returns a copy of the current cart contents.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Load fetches the user's cart. silent skips the loading flag so
// background reconciliation does not flicker the UI.
func (c *Cart) Load(ctx context.Context, silent bool) {
	user := c.Session.Current()
	if user == nil {
		c.Reset()
		return
	}

	if !silent {
		c.setLoading(true)
		defer c.setLoading(false)
	}

	items, err := c.Client.CartItems(ctx, user.ID)
	if err != nil {
		c.Log.Error("load cart", "error", err)
		return
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

// Add puts one unit of the product into the cart. An existing item gets an
// optimistic quantity increment; that path deliberately does not roll back
// or reload on failure. A missing item is created remotely (the server
// assigns the id) followed by a silent reload either way.
func (c *Cart) Add(ctx context.Context, product models.Product) {
	user := c.Session.Current()
	if user == nil {
		return
	}

	c.mu.Lock()
	var existing *models.CartItem
	for i := range c.items {
		if c.items[i].ProductID == product.ID {
			existing = &c.items[i]
			break
		}
	}

	if existing != nil {
		id := existing.ID
		newQuantity := existing.Quantity + 1
		existing.Quantity = newQuantity
		c.mu.Unlock()

		if _, err := c.Client.PatchCartItem(ctx, id, map[string]any{"quantity": newQuantity}); err != nil {
			c.Log.Error("update cart item", "id", id, "error", err)
		}
		return
	}
	c.mu.Unlock()

	_, err := c.Client.CreateCartItem(ctx, models.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Product:   product,
		Quantity:  1,
	})
	if err != nil {
		c.Log.Error("add to cart", "product", product.ID, "error", err)
	}
	c.Load(ctx, true)
}

// UpdateQuantity sets the quantity of a cart item; a quantity of zero or
// less removes it. Rolls back the optimistic update on failure.
func (c *Cart) UpdateQuantity(ctx context.Context, id int64, quantity int) {
	user := c.Session.Current()
	if user == nil {
		return
	}

	if quantity <= 0 {
		c.Remove(ctx, id)
		return
	}

	c.mu.Lock()
	previous := make([]models.CartItem, len(c.items))
	copy(previous, c.items)
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = quantity
			break
		}
	}
	c.mu.Unlock()

	if _, err := c.Client.PatchCartItem(ctx, id, map[string]any{"quantity": quantity}); err != nil {
		c.Log.Error("update cart item", "id", id, "error", err)
		c.mu.Lock()
		c.items = previous
		c.mu.Unlock()
	}
}

// Remove deletes a cart item, restoring the previous state when the
// remote delete fails.
func (c *Cart) Remove(ctx context.Context, id int64) {
	user := c.Session.Current()
	if user == nil {
		return
	}

	c.mu.Lock()
	previous := make([]models.CartItem, len(c.items))
	copy(previous, c.items)
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.mu.Unlock()

	if err := c.Client.DeleteCartItem(ctx, id); err != nil {
		c.Log.Error("remove from cart", "id", id, "error", err)
		c.mu.Lock()
		c.items = previous
		c.mu.Unlock()
	}
}

// Clear empties the cart locally and remotely. The optimistic empty has
// already happened, so a failure degrades to a silent reload rather than
// a rollback.
func (c *Cart) Clear(ctx context.Context) {
	user := c.Session.Current()
	if user == nil {
		return
	}

	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()

	if err := c.Client.ClearCart(ctx, user.ID); err != nil {
		c.Log.Error("clear cart", "error", err)
		c.Load(ctx, true)
	}
}

// TotalPrice sums price*quantity over the denormalized product snapshots.
func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, item := range c.items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// Reset drops local state, used when the user signs out.
func (c *Cart) Reset() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

func (c *Cart) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}
