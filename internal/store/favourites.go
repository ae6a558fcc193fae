package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/api"
	"storefront/internal/models"
)

// Favourites mirrors the user's favourites list. Adds are optimistic
// inserts under a temporary id; once the create call resolves, the store
// re-checks live state instead of trusting the state captured before the
// round trip, so a toggle-off racing a slow create cannot resurrect the
// item: the add path issues a compensating delete for the orphaned server
// record.
type Favourites struct {
	Client  *api.Client
	Session UserSource
	Log     *slog.Logger

	mu      sync.Mutex
	items   []models.FavouriteItem
	loading bool
}

func NewFavourites(client *api.Client, session UserSource, log *slog.Logger) *Favourites {
	return &Favourites{Client: client, Session: session, Log: log}
}

func (f *Favourites) Items() []models.FavouriteItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.FavouriteItem, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Favourites) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *Favourites) Load(ctx context.Context, silent bool) {
	user := f.Session.Current()
	if user == nil {
		f.Reset()
		return
	}

	if !silent {
		f.setLoading(true)
		defer f.setLoading(false)
	}

	items, err := f.Client.Favourites(ctx, user.ID)
	if err != nil {
		f.Log.Error("load favourites", "error", err)
		return
	}

	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
}

// tempID synthesizes an id for the optimistic item. Server ids are
// positive, so a negative nanosecond timestamp cannot collide during the
// pending window.
func tempID() int64 {
	return -time.Now().UnixNano()
}

// Add favourites a product. No-op when it is already favourited.
func (f *Favourites) Add(ctx context.Context, product models.Product) {
	user := f.Session.Current()
	if user == nil {
		return
	}

	f.mu.Lock()
	for _, item := range f.items {
		if item.ProductID == product.ID {
			f.mu.Unlock()
			return
		}
	}

	temp := models.FavouriteItem{
		ID:        tempID(),
		UserID:    user.ID,
		ProductID: product.ID,
		Product:   product,
		IsTemp:    true,
	}
	f.items = append(f.items, temp)
	f.mu.Unlock()

	created, err := f.Client.CreateFavourite(ctx, models.FavouriteItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Product:   product,
	})
	if err != nil {
		f.Log.Error("add favourite", "product", product.ID, "error", err)
		f.mu.Lock()
		f.dropLocked(temp.ID)
		f.mu.Unlock()
		return
	}

	// The temp item may have been toggled off while the create was in
	// flight. The check and the swap share one critical section.
	f.mu.Lock()
	idx := -1
	for i, item := range f.items {
		if item.ID == temp.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		f.mu.Unlock()
		if err := f.Client.DeleteFavourite(ctx, created.ID); err != nil {
			f.Log.Error("compensating favourite delete", "id", created.ID, "error", err)
		}
		return
	}
	f.items[idx] = created
	f.mu.Unlock()
}

// Remove unfavourites by item id. Removing a still-pending temp item only
// touches local state; the in-flight Add detects the removal and issues
// the compensating delete itself.
func (f *Favourites) Remove(ctx context.Context, id int64) {
	user := f.Session.Current()
	if user == nil {
		return
	}

	f.mu.Lock()
	var target *models.FavouriteItem
	for i := range f.items {
		if f.items[i].ID == id {
			target = &f.items[i]
			break
		}
	}
	if target == nil {
		f.mu.Unlock()
		return
	}

	previous := make([]models.FavouriteItem, len(f.items))
	copy(previous, f.items)
	wasTemp := target.IsTemp
	f.dropLocked(id)
	f.mu.Unlock()

	if wasTemp {
		return
	}

	if err := f.Client.DeleteFavourite(ctx, id); err != nil {
		f.Log.Error("remove favourite", "id", id, "error", err)
		f.mu.Lock()
		f.items = previous
		f.mu.Unlock()
	}
}

func (f *Favourites) Reset() {
	f.mu.Lock()
	f.items = nil
	f.mu.Unlock()
}

func (f *Favourites) dropLocked(id int64) {
	kept := f.items[:0]
	for _, item := range f.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.items = kept
}

func (f *Favourites) setLoading(v bool) {
	f.mu.Lock()
	f.loading = v
	f.mu.Unlock()
}
