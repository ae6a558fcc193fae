package mockapi

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/labstack/echo/v4"
)

// resource is the generic CRUD surface every collection shares: list with
// query-string filtering, create with a server-assigned id, merge-patch,
// delete. The per-type behavior is just the filter map and an optional
// post-create hook.
type resource[T any] struct {
	s       *Server
	filters map[string]string // query param -> column
	created func(c echo.Context, item *T)
	updated func(c echo.Context, item *T)
}

func (r *resource[T]) List(c echo.Context) error {
	q := r.s.DB.Model(new(T))
	for param, column := range r.filters {
		if v := c.QueryParam(param); v != "" {
			q = q.Where(column+" = ?", v)
		}
	}

	out := []T{}
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

func (r *resource[T]) Create(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	item := new(T)
	if err := json.Unmarshal(body, item); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	setID(item, 0)

	if err := r.s.DB.Create(item).Error; err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	if r.created != nil {
		r.created(c, item)
	}
	return c.JSON(http.StatusCreated, item)
}

func (r *resource[T]) Patch(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	item := new(T)
	if err := r.s.DB.First(item, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	// Merge-patch onto the stored record; the body can never move the id.
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(body, &patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	delete(patch, "id")
	merged, err := json.Marshal(patch)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	if err := json.Unmarshal(merged, item); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	setID(item, id)

	if err := r.s.DB.Save(item).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	if r.updated != nil {
		r.updated(c, item)
	}
	return c.JSON(http.StatusOK, item)
}

func (r *resource[T]) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := r.s.DB.Delete(new(T), id).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{})
}

// Every model carries an int64 ID primary key; reflection keeps the
// generic handlers free of a per-type interface.
func setID(v any, id int64) {
	f := reflect.ValueOf(v).Elem().FieldByName("ID")
	if f.IsValid() && f.CanSet() && f.Kind() == reflect.Int64 {
		f.SetInt(id)
	}
}
