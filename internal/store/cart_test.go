package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/api"
	"storefront/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSession struct {
	user *models.User
}

func (f *fakeSession) Current() *models.User { return f.user }

func sessionFor(id int64) *fakeSession {
	return &fakeSession{user: &models.User{ID: id, Email: "u@example.com", Name: "U"}}
}

// cartEnv is an in-memory /carts backend with switchable failures and a
// request log.
type cartEnv struct {
	mu         sync.Mutex
	items      map[int64]models.CartItem
	nextID     int64
	failCreate bool
	failPatch  bool
	failDelete bool
	calls      []string
	srv        *httptest.Server
}

func newCartEnv(t *testing.T) *cartEnv {
	t.Helper()
	env := &cartEnv{items: map[int64]models.CartItem{}, nextID: 1}
	env.srv = httptest.NewServer(http.HandlerFunc(env.handle))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *cartEnv) handle(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodGet:
		out := make([]models.CartItem, 0, len(e.items))
		for _, item := range e.items {
			out = append(out, item)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		json.NewEncoder(w).Encode(out)

	case r.Method == http.MethodPost:
		if e.failCreate {
			http.Error(w, `{"message":"create failed"}`, http.StatusInternalServerError)
			return
		}
		var item models.CartItem
		json.NewDecoder(r.Body).Decode(&item)
		item.ID = e.nextID
		e.nextID++
		e.items[item.ID] = item
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(item)

	case r.Method == http.MethodPatch:
		if e.failPatch {
			http.Error(w, `{"message":"patch failed"}`, http.StatusInternalServerError)
			return
		}
		id := pathID(r.URL.Path)
		item, ok := e.items[id]
		if !ok {
			http.Error(w, `{"message":"Not found"}`, http.StatusNotFound)
			return
		}
		var patch struct {
			Quantity *int `json:"quantity"`
		}
		json.NewDecoder(r.Body).Decode(&patch)
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		e.items[id] = item
		json.NewEncoder(w).Encode(item)

	case r.Method == http.MethodDelete:
		if e.failDelete {
			http.Error(w, `{"message":"delete failed"}`, http.StatusInternalServerError)
			return
		}
		delete(e.items, pathID(r.URL.Path))
		w.Write([]byte(`{}`))
	}
}

func pathID(path string) int64 {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	id, _ := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	return id
}

func (e *cartEnv) callCount(prefix string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (e *cartEnv) serverItems() []models.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.CartItem, 0, len(e.items))
	for _, item := range e.items {
		out = append(out, item)
	}
	return out
}

func newCart(env *cartEnv) *Cart {
	client := api.NewClient(env.srv.URL, func() string { return "test-token" })
	return NewCart(client, sessionFor(1), testLogger())
}

var testProduct = models.Product{ID: 10, Name: "Widget", Price: 19.99, Stock: 5}

func TestAddCreatesSingleItem(t *testing.T) {
	env := newCartEnv(t)
	cart := newCart(env)
	ctx := context.Background()

	cart.Add(ctx, testProduct)

	items := cart.Items()
	require.Len(t, items, 1)
	require.Equal(t, testProduct.ID, items[0].ProductID)
	require.Equal(t, 1, items[0].Quantity)
	require.Equal(t, 1, env.callCount("POST /carts"))
}

func TestRepeatAddIncrementsQuantity(t *testing.T) {
	env := newCartEnv(t)
	cart := newCart(env)
	ctx := context.Background()

	cart.Add(ctx, testProduct)
	cart.Add(ctx, testProduct)

	items := cart.Items()
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].Quantity)
	// Second add patches the existing item instead of creating another.
	require.Equal(t, 1, env.callCount("POST /carts"))
	require.Equal(t, 1, env.callCount("PATCH /carts/"))
	require.Len(t, env.serverItems(), 1)
}

func TestAddExistingFailureKeepsLocalIncrement(t *testing.T) {
	env := newCartEnv(t)
	cart := newCart(env)
	ctx := context.Background()

	cart.Add(ctx, testProduct)
	env.mu.Lock()
	env.failPatch = true
	env.mu.Unlock()

	cart.Add(ctx, testProduct)

	// The increment path neither rolls back nor reloads on failure.
	items := cart.Items()
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].Quantity)
	require.Equal(t, 1, env.serverItems()[0].Quantity)
}

func TestAddCreateFailureReloads(t *testing.T) {
	env := newCartEnv(t)
	cart := newCart(env)
	ctx := context.Background()

	env.mu.Lock()
	env.failCreate = true
	env.mu.Unlock()

	cart.Add(ctx, testProduct)

	require.Empty(t, cart.Items())
	require.GreaterOrEqual(t, env.callCount("GET /carts"), 1)
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	env := newCartEnv(t)
	cart := newCart(env)
	ctx := context.Background()

	cart.Add(ctx, testProduct)
	id := cart.Items()[0].ID

	cart.UpdateQuantity(ctx, id, 0)

	require.Empty(t, cart.Items())
	require.Empty(t, env.serverItems())
	require.Equal(t, 1, env.callCount("DELETE /carts/"))
	require.Equal(t, 0, env.callCount("PATCH /carts/"))
}

func TestUpdateQuantityRollsBackOnFailure(t *testing.T) {
	env := newCartEnv(t)
	cart := newCart(env)
	ctx := context.Background()

	cart.Add(ctx, testProduct)
	id := cart.Items()[0].ID

	env.mu.Lock()
	env.failPatch = true
	env.mu.Unlock()

	cart.UpdateQuantity(ctx, id, 4)

	require.Equal(t, 1, cart.Items()[0].Quantity)
}

func TestRemoveRollsBackOnFailure(t *testing.T) {
	env := newCartEnv(t)
	cart := newCart(env)
	ctx := context.Background()

	cart.Add(ctx, testProduct)
	id := cart.Items()[0].ID

	env.mu.Lock()
	env.failDelete = true
	env.mu.Unlock()

	cart.Remove(ctx, id)

	require.Len(t, cart.Items(), 1)
}

func TestClearEmptiesServerAndLocal(t *testing.T) {
	env := newCartEnv(t)
	cart := newCart(env)
	ctx := context.Background()

	cart.Add(ctx, testProduct)
	cart.Add(ctx, models.Product{ID: 11, Name: "Gadget", Price: 5, Stock: 3})

	cart.Clear(ctx)

	require.Empty(t, cart.Items())
	require.Empty(t, env.serverItems())
	require.Equal(t, 2, env.callCount("DELETE /carts/"))
}

func TestTotalPrice(t *testing.T) {
	env := newCartEnv(t)
	cart := newCart(env)
	ctx := context.Background()

	require.Zero(t, cart.TotalPrice())

	cart.Add(ctx, testProduct)
	cart.Add(ctx, testProduct)
	cart.Add(ctx, models.Product{ID: 11, Name: "Gadget", Price: 5, Stock: 3})

	require.InDelta(t, 19.99*2+5, cart.TotalPrice(), 1e-9)
	// Recomputation does not mutate anything.
	require.InDelta(t, cart.TotalPrice(), cart.TotalPrice(), 1e-9)

	id := cart.Items()[1].ID
	cart.Remove(ctx, id)
	require.InDelta(t, 19.99*2, cart.TotalPrice(), 1e-9)
}

func TestUnauthenticatedCartIsInert(t *testing.T) {
	env := newCartEnv(t)
	client := api.NewClient(env.srv.URL, nil)
	cart := NewCart(client, &fakeSession{}, testLogger())
	ctx := context.Background()

	cart.Add(ctx, testProduct)
	cart.Load(ctx, false)
	cart.Clear(ctx)

	require.Empty(t, cart.Items())
	require.Empty(t, env.calls)
}
