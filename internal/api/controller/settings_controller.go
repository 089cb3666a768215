package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/veloshop/storefront/internal/catalog"
	"github.com/veloshop/storefront/internal/docstore"
	"github.com/veloshop/storefront/internal/respcache"
)

// SingletonController serves a collection that holds exactly one document,
// like the shipping and tax settings. GET returns the document, PUT
// replaces it; there is no create or delete.
type SingletonController[T any] struct {
	Store    docstore.MutableStore
	Cache    *respcache.Cache
	Validate *validator.Validate

	Resource string
	Field    func(*catalog.StoreDocument) **T
	ID       func(*T) string
	SetID    func(*T, string)
}

// RegisterSingletonRoutes registers GET and PUT for the singleton.
func (sc *SingletonController[T]) RegisterSingletonRoutes(rg *gin.RouterGroup) {
	rg.GET("/"+sc.Resource, sc.Get)
	rg.PUT("/"+sc.Resource, sc.Put)
}

// Get handles GET requests. A singleton that was never written yet returns
// an empty object so clients always see a consistent shape.
func (sc *SingletonController[T]) Get(c *gin.Context) {
	doc, err := sc.Store.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read settings"})
		return
	}
	field := *sc.Field(&doc)
	if field == nil {
		var empty T
		c.JSON(http.StatusOK, empty)
		return
	}
	c.JSON(http.StatusOK, field)
}

// Put handles PUT requests, replacing the singleton wholesale.
func (sc *SingletonController[T]) Put(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if sc.ID(&item) == "" {
		sc.SetID(&item, uuid.NewString())
	}
	if err := sc.Validate.Struct(item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := sc.Store.Mutate(func(doc *catalog.StoreDocument) error {
		*sc.Field(doc) = &item
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}
	if sc.Cache != nil {
		sc.Cache.InvalidateByPattern(sc.Resource + ":")
	}
	c.JSON(http.StatusOK, item)
}
