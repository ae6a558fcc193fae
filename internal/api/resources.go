package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"storefront/internal/models"
)

// Typed wrappers over the REST resource surface. Paths and query
// parameters match the backing API one to one.

func (c *Client) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.Post(ctx, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, &raw)
	return raw, err
}

func (c *Client) Register(ctx context.Context, email, password, name string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.Post(ctx, "/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &raw)
	return raw, err
}

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := c.Get(ctx, "/products", nil, &out)
	return out, err
}

func (c *Client) Product(ctx context.Context, id int64) (models.Product, error) {
	var out models.Product
	err := c.Get(ctx, fmt.Sprintf("/products/%d", id), nil, &out)
	return out, err
}

func (c *Client) PatchProduct(ctx context.Context, id int64, patch map[string]any) (models.Product, error) {
	var out models.Product
	err := c.Patch(ctx, fmt.Sprintf("/products/%d", id), patch, &out)
	return out, err
}

func (c *Client) CartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	var out []models.CartItem
	err := c.Get(ctx, "/carts", url.Values{"userId": {fmt.Sprint(userID)}}, &out)
	return out, err
}

func (c *Client) CreateCartItem(ctx context.Context, item models.CartItem) (models.CartItem, error) {
	var out models.CartItem
	err := c.Post(ctx, "/carts", item, &out)
	return out, err
}

func (c *Client) PatchCartItem(ctx context.Context, id int64, patch map[string]any) (models.CartItem, error) {
	var out models.CartItem
	err := c.Patch(ctx, fmt.Sprintf("/carts/%d", id), patch, &out)
	return out, err
}

func (c *Client) DeleteCartItem(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/carts/%d", id))
}

// ClearCart removes every cart item of the user. The API has no bulk
// delete, so this is fetch-all-then-delete-each.
func (c *Client) ClearCart(ctx context.Context, userID int64) error {
	items, err := c.CartItems(ctx, userID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := c.DeleteCartItem(ctx, item.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) Favourites(ctx context.Context, userID int64) ([]models.FavouriteItem, error) {
	var out []models.FavouriteItem
	err := c.Get(ctx, "/favourites", url.Values{"userId": {fmt.Sprint(userID)}}, &out)
	return out, err
}

func (c *Client) CreateFavourite(ctx context.Context, item models.FavouriteItem) (models.FavouriteItem, error) {
	var out models.FavouriteItem
	err := c.Post(ctx, "/favourites", item, &out)
	return out, err
}

func (c *Client) DeleteFavourite(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/favourites/%d", id))
}

func (c *Client) Orders(ctx context.Context, userID int64) ([]models.Order, error) {
	var out []models.Order
	err := c.Get(ctx, "/orders", url.Values{"userId": {fmt.Sprint(userID)}}, &out)
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	var out models.Order
	err := c.Post(ctx, "/orders", order, &out)
	return out, err
}

func (c *Client) PatchOrder(ctx context.Context, id int64, patch map[string]any) (models.Order, error) {
	var out models.Order
	err := c.Patch(ctx, fmt.Sprintf("/orders/%d", id), patch, &out)
	return out, err
}

func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/orders/%d", id))
}

func (c *Client) Reviews(ctx context.Context, productID int64) ([]models.Review, error) {
	var out []models.Review
	err := c.Get(ctx, "/reviews", url.Values{"productId": {fmt.Sprint(productID)}}, &out)
	return out, err
}

func (c *Client) UserReview(ctx context.Context, userID, productID int64) ([]models.Review, error) {
	var out []models.Review
	err := c.Get(ctx, "/reviews", url.Values{
		"userId":    {fmt.Sprint(userID)},
		"productId": {fmt.Sprint(productID)},
	}, &out)
	return out, err
}

func (c *Client) CreateReview(ctx context.Context, review models.Review) (models.Review, error) {
	var out models.Review
	err := c.Post(ctx, "/reviews", review, &out)
	return out, err
}

func (c *Client) UpdateReview(ctx context.Context, id int64, patch map[string]any) (models.Review, error) {
	var out models.Review
	err := c.Patch(ctx, fmt.Sprintf("/reviews/%d", id), patch, &out)
	return out, err
}

func (c *Client) DeleteReview(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/reviews/%d", id))
}

func (c *Client) UpdateUser(ctx context.Context, id int64, patch map[string]any) (models.User, error) {
	var out models.User
	err := c.Patch(ctx, fmt.Sprintf("/users/%d", id), patch, &out)
	return out, err
}
