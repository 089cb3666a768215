package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veloshop/storefront/internal/respcache"
)

// CrudController provides generic CRUD handlers for one collection.
// Updates accept both PUT /<resource>/:id and a bare PUT /<resource> with
// the identity inside the body; deletes accept DELETE /<resource>/:id and
// DELETE /<resource>?id= for clients that cannot build path parameters.
type CrudController[T any] struct {
	Service *Collection[T]
	Cache   *respcache.Cache

	// Resource is the URL path segment, also used as the cache key prefix.
	Resource string
	// EnvelopeKey, when set, enables the paginated list envelope under
	// this key for requests carrying page or limit parameters.
	EnvelopeKey string
	// SortLess orders list responses when set.
	SortLess func(a, b T) bool
}

// RegisterCrudRoutes registers the collection's endpoints on the group.
func (cc *CrudController[T]) RegisterCrudRoutes(rg *gin.RouterGroup) {
	rg.GET("/"+cc.Resource, cc.List)
	rg.POST("/"+cc.Resource, cc.Create)
	rg.PUT("/"+cc.Resource+"/:id", cc.UpdateByID)
	rg.PUT("/"+cc.Resource, cc.UpdateFromBody)
	rg.DELETE("/"+cc.Resource+"/:id", cc.DeleteByID)
	rg.DELETE("/"+cc.Resource, cc.DeleteByQuery)
}

// List handles GET requests. The response is cached per query string until
// the next mutation on this collection invalidates it.
func (cc *CrudController[T]) List(c *gin.Context) {
	var payload any
	var err error
	if cc.Cache != nil {
		key := cc.Resource + ":list:" + c.Request.URL.RawQuery
		payload, err = cc.Cache.GetOrLoad(c.Request.Context(), key, func(context.Context) (any, error) {
			return cc.buildListResponse(c)
		})
	} else {
		payload, err = cc.buildListResponse(c)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read collection"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (cc *CrudController[T]) buildListResponse(c *gin.Context) (any, error) {
	items, err := cc.Service.All()
	if err != nil {
		return nil, err
	}
	if cc.SortLess != nil {
		sort.SliceStable(items, func(i, j int) bool { return cc.SortLess(items[i], items[j]) })
	}

	pageStr, limitStr := c.Query("page"), c.Query("limit")
	if cc.EnvelopeKey == "" || (pageStr == "" && limitStr == "") {
		return items, nil
	}

	page, _ := strconv.Atoi(pageStr)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(limitStr)
	if limit < 1 {
		limit = 12
	}

	total := len(items)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return gin.H{
		cc.EnvelopeKey: items[start:end],
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
			"hasMore":    page < totalPages,
		},
	}, nil
}

// Create handles POST requests.
func (cc *CrudController[T]) Create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	created, err := cc.Service.Create(item)
	if err != nil {
		cc.writeError(c, err, "failed to create document")
		return
	}
	cc.invalidate()
	c.JSON(http.StatusCreated, created)
}

// UpdateByID handles PUT requests addressed by path id.
func (cc *CrudController[T]) UpdateByID(c *gin.Context) {
	cc.update(c, c.Param("id"), nil)
}

// UpdateFromBody handles bare PUT requests where the document carries its
// own identity as _id or id.
func (cc *CrudController[T]) UpdateFromBody(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	id := rawStringField(raw, "_id")
	if id == "" {
		id = rawStringField(raw, "id")
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document identity is required"})
		return
	}
	cc.update(c, id, body)
}

func (cc *CrudController[T]) update(c *gin.Context, id string, body []byte) {
	var item T
	if body != nil {
		if err := json.Unmarshal(body, &item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
	} else if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	updated, err := cc.Service.Update(id, item)
	if err != nil {
		cc.writeError(c, err, "failed to update document")
		return
	}
	cc.invalidate()
	c.JSON(http.StatusOK, updated)
}

// DeleteByID handles DELETE requests addressed by path id.
func (cc *CrudController[T]) DeleteByID(c *gin.Context) {
	cc.delete(c, c.Param("id"))
}

// DeleteByQuery handles DELETE requests with the id in the query string.
func (cc *CrudController[T]) DeleteByQuery(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing document id"})
		return
	}
	cc.delete(c, id)
}

func (cc *CrudController[T]) delete(c *gin.Context, id string) {
	if err := cc.Service.Delete(id); err != nil {
		cc.writeError(c, err, "failed to delete document")
		return
	}
	cc.invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "id": id})
}

func (cc *CrudController[T]) invalidate() {
	if cc.Cache != nil {
		cc.Cache.InvalidateByPattern(cc.Resource + ":")
	}
}

func (cc *CrudController[T]) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case IsInvalid(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func rawStringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
