package mockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"storefront/internal/models"
)

// NewESClient connects to Elasticsearch and verifies the node answers.
func NewESClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: %s", res.Status())
	}
	return client, nil
}

// IndexProducts pushes the whole catalog into the search index.
func (s *Server) IndexProducts(ctx context.Context) error {
	if s.ES == nil {
		return nil
	}

	var products []models.Product
	if err := s.DB.Find(&products).Error; err != nil {
		return err
	}

	for _, p := range products {
		if err := s.indexProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) indexProduct(ctx context.Context, p models.Product) error {
	if s.ES == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := s.ES.Index(
		s.ESIndex,
		bytes.NewReader(data),
		s.ES.Index.WithDocumentID(fmt.Sprint(p.ID)),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", p.ID, err)
	}
	res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %d: %s", p.ID, res.Status())
	}
	return nil
}

// searchProducts answers /products?q= through Elasticsearch when
// configured, falling back to a LIKE scan otherwise.
func (s *Server) searchProducts(c echo.Context, query string) error {
	if s.ES == nil {
		pattern := "%" + strings.ToLower(query) + "%"
		out := []models.Product{}
		err := s.DB.
			Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
			Order("id ASC").
			Find(&out).Error
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
		}
		return c.JSON(http.StatusOK, out)
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c.Request().Context()),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"message": err.Error()})
	}
	defer res.Body.Close()
	if res.IsError() {
		return c.JSON(http.StatusBadGateway, echo.Map{"message": res.Status()})
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	out := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		out[i] = hit.Source
	}
	return c.JSON(http.StatusOK, out)
}
