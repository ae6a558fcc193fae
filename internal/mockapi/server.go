package mockapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"storefront/internal/models"
)

// Server is the generic REST backend the storefront client consumes. It
// speaks the json-server-auth dialect: {accessToken, user} auth payloads
// and flat, query-string-filtered CRUD collections.
type Server struct {
	DB        *gorm.DB
	Log       *slog.Logger
	JWTSecret []byte
	Producer  *Producer
	ES        *elasticsearch.Client
	ESIndex   string
}

func New(db *gorm.DB, log *slog.Logger, jwtSecret []byte) *Server {
	return &Server{DB: db, Log: log, JWTSecret: jwtSecret}
}

// Register wires all routes onto the echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.Use(RequestID())
	e.Use(RequestLogger(s.Log))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", s.RegisterUser)
	e.POST("/login", s.Login)

	auth := RequireAuth(s.JWTSecret)

	products := &resource[models.Product]{
		s: s,
		updated: func(c echo.Context, p *models.Product) {
			if err := s.indexProduct(c.Request().Context(), *p); err != nil {
				s.Log.Error("reindex product", "product", p.ID, "error", err)
			}
		},
	}
	e.GET("/products", s.ListProducts)
	e.GET("/products/:id", s.GetProduct)
	e.PATCH("/products/:id", products.Patch, auth)

	carts := &resource[models.CartItem]{
		s:       s,
		filters: map[string]string{"userId": "user_id", "productId": "product_id"},
	}
	e.GET("/carts", carts.List, auth)
	e.POST("/carts", carts.Create, auth)
	e.PATCH("/carts/:id", carts.Patch, auth)
	e.DELETE("/carts/:id", carts.Delete, auth)

	favourites := &resource[models.FavouriteItem]{
		s:       s,
		filters: map[string]string{"userId": "user_id", "productId": "product_id"},
	}
	e.GET("/favourites", favourites.List, auth)
	e.POST("/favourites", favourites.Create, auth)
	e.DELETE("/favourites/:id", favourites.Delete, auth)

	orders := &resource[models.Order]{
		s:       s,
		filters: map[string]string{"userId": "user_id"},
		created: func(c echo.Context, order *models.Order) {
			s.publish(c, "order_events", fmt.Sprint(order.UserID), map[string]any{
				"type":    "order_created",
				"orderId": order.ID,
				"userId":  order.UserID,
				"total":   order.Total,
			})
		},
	}
	e.GET("/orders", orders.List, auth)
	e.POST("/orders", orders.Create, auth)
	e.PATCH("/orders/:id", orders.Patch, auth)
	e.DELETE("/orders/:id", orders.Delete, auth)

	reviews := &resource[models.Review]{
		s:       s,
		filters: map[string]string{"userId": "user_id", "productId": "product_id"},
	}
	e.GET("/reviews", reviews.List)
	e.POST("/reviews", reviews.Create, auth)
	e.PATCH("/reviews/:id", reviews.Patch, auth)
	e.DELETE("/reviews/:id", reviews.Delete, auth)

	users := &resource[models.User]{s: s}
	e.PATCH("/users/:id", users.Patch, auth)
}

// ListProducts serves the catalog, optionally filtered by full-text q.
func (s *Server) ListProducts(c echo.Context) error {
	if q := c.QueryParam("q"); q != "" {
		return s.searchProducts(c, q)
	}

	out := []models.Product{}
	query := s.DB.Model(&models.Product{})
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Order("id ASC").Find(&out).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

// GetProduct serves a single product.
func (s *Server) GetProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var product models.Product
	if err := s.DB.First(&product, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
	}
	return c.JSON(http.StatusOK, product)
}
