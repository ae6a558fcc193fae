package checkout

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
	"storefront/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSession struct {
	user *models.User
}

func (f *fakeSession) Current() *models.User { return f.user }

// shopEnv backs /products, /carts and /orders in memory.
type shopEnv struct {
	mu         sync.Mutex
	products   map[int64]models.Product
	cartItems  map[int64]models.CartItem
	orders     []models.Order
	nextCartID int64
	failOrder  bool
	calls      []string
	srv        *httptest.Server
}

func newShopEnv(t *testing.T, products ...models.Product) *shopEnv {
	t.Helper()
	env := &shopEnv{
		products:   map[int64]models.Product{},
		cartItems:  map[int64]models.CartItem{},
		nextCartID: 1,
	}
	for _, p := range products {
		env.products[p.ID] = p
	}
	env.srv = httptest.NewServer(http.HandlerFunc(env.handle))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *shopEnv) handle(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, r.Method+" "+r.URL.Path)

	switch {
	case strings.HasPrefix(r.URL.Path, "/products/"):
		id := pathID(r.URL.Path)
		product, ok := e.products[id]
		if !ok {
			http.Error(w, `{"message":"Not found"}`, http.StatusNotFound)
			return
		}
		if r.Method == http.MethodPatch {
			var patch struct {
				Stock *int `json:"stock"`
			}
			json.NewDecoder(r.Body).Decode(&patch)
			if patch.Stock != nil {
				product.Stock = *patch.Stock
			}
			e.products[id] = product
		}
		json.NewEncoder(w).Encode(product)

	case r.URL.Path == "/orders" && r.Method == http.MethodPost:
		if e.failOrder {
			http.Error(w, `{"message":"orders are closed"}`, http.StatusForbidden)
			return
		}
		var order models.Order
		json.NewDecoder(r.Body).Decode(&order)
		order.ID = int64(len(e.orders) + 1)
		e.orders = append(e.orders, order)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(order)

	case r.URL.Path == "/carts" && r.Method == http.MethodGet:
		out := make([]models.CartItem, 0, len(e.cartItems))
		for _, item := range e.cartItems {
			out = append(out, item)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		json.NewEncoder(w).Encode(out)

	case r.URL.Path == "/carts" && r.Method == http.MethodPost:
		var item models.CartItem
		json.NewDecoder(r.Body).Decode(&item)
		item.ID = e.nextCartID
		e.nextCartID++
		e.cartItems[item.ID] = item
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(item)

	case strings.HasPrefix(r.URL.Path, "/carts/") && r.Method == http.MethodPatch:
		id := pathID(r.URL.Path)
		item, ok := e.cartItems[id]
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
		e.cartItems[id] = item
		json.NewEncoder(w).Encode(item)

	case strings.HasPrefix(r.URL.Path, "/carts/") && r.Method == http.MethodDelete:
		delete(e.cartItems, pathID(r.URL.Path))
		w.Write([]byte(`{}`))

	default:
		http.Error(w, `{"message":"Not found"}`, http.StatusNotFound)
	}
}

func pathID(path string) int64 {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	id, _ := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	return id
}

func (e *shopEnv) callCount(prefix string) int {
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

func (e *shopEnv) stock(id int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.products[id].Stock
}

func (e *shopEnv) orderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.orders)
}

func newService(env *shopEnv, user *models.User) (*Service, *store.Cart) {
	client := api.NewClient(env.srv.URL, func() string { return "test-token" })
	sess := &fakeSession{user: user}
	cart := store.NewCart(client, sess, testLogger())
	return New(client, sess, cart, testLogger()), cart
}

var buyer = &models.User{ID: 1, Email: "buyer@example.com", Name: "Buyer"}

func TestCheckoutInsufficientStockAborts(t *testing.T) {
	product := models.Product{ID: 10, Name: "Widget", Price: 4, Stock: 3}
	env := newShopEnv(t, product)
	svc, cart := newService(env, buyer)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cart.Add(ctx, product)
	}
	before := len(env.calls)

	_, err := svc.Checkout(ctx)
	require.Error(t, err)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "Widget", stockErr.Product.Name)
	require.Equal(t, 5, stockErr.Requested)

	// Aborted before any network call: no order, no stock change, cart intact.
	require.Equal(t, before, len(env.calls))
	require.Equal(t, 0, env.orderCount())
	require.Equal(t, 3, env.stock(10))
	require.Len(t, cart.Items(), 1)
	require.Equal(t, 5, cart.Items()[0].Quantity)
}

func TestCheckoutSuccess(t *testing.T) {
	widget := models.Product{ID: 10, Name: "Widget", Price: 4, Stock: 5}
	gadget := models.Product{ID: 11, Name: "Gadget", Price: 2.5, Stock: 2}
	env := newShopEnv(t, widget, gadget)
	svc, cart := newService(env, buyer)
	ctx := context.Background()

	cart.Add(ctx, widget)
	cart.Add(ctx, widget)
	cart.Add(ctx, gadget)

	order, err := svc.Checkout(ctx)
	require.NoError(t, err)

	require.Equal(t, models.OrderPending, order.Status)
	require.Equal(t, buyer.ID, order.UserID)
	require.Len(t, order.Items, 2)
	require.InDelta(t, 4*2+2.5, order.Total, 1e-9)

	require.Equal(t, 3, env.stock(10))
	require.Equal(t, 1, env.stock(11))
	require.Empty(t, cart.Items())
	require.Equal(t, 1, env.orderCount())
}

func TestCheckoutOrderFailureLeavesCartIntact(t *testing.T) {
	widget := models.Product{ID: 10, Name: "Widget", Price: 4, Stock: 5}
	env := newShopEnv(t, widget)
	svc, cart := newService(env, buyer)
	ctx := context.Background()

	cart.Add(ctx, widget)

	env.mu.Lock()
	env.failOrder = true
	env.mu.Unlock()

	_, err := svc.Checkout(ctx)
	require.Error(t, err)
	require.Equal(t, "orders are closed", api.ErrorDetail(err))

	require.Len(t, cart.Items(), 1)
	require.Equal(t, 5, env.stock(10))
	require.Equal(t, 0, env.callCount("PATCH /products/"))
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newShopEnv(t)
	svc, _ := newService(env, buyer)

	_, err := svc.Checkout(context.Background())
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutRequiresUser(t *testing.T) {
	env := newShopEnv(t)
	svc, _ := newService(env, nil)

	_, err := svc.Checkout(context.Background())
	require.ErrorIs(t, err, ErrNotSignedIn)
}
