package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/veloshop/storefront/internal/catalog"
	"github.com/veloshop/storefront/internal/docstore"
	"github.com/veloshop/storefront/internal/respcache"
)

func newTestRouter(t *testing.T, doc catalog.StoreDocument) (*gin.Engine, *docstore.Store, *respcache.Cache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	doc.ApplyDefaults()
	store := docstore.NewStore(doc)
	cache := respcache.New(respcache.DefaultMaxEntries, respcache.Hooks{})
	v := validator.New()

	r := gin.New()
	api := r.Group("/api")

	products := &CrudController[catalog.Product]{
		Service:     NewProductService(store, v),
		Cache:       cache,
		Resource:    "products",
		EnvelopeKey: "products",
		SortLess: func(a, b catalog.Product) bool {
			return a.CreatedAt > b.CreatedAt
		},
	}
	products.RegisterCrudRoutes(api)

	categories := &CrudController[catalog.Category]{
		Service:  NewCategoryService(store, v),
		Cache:    cache,
		Resource: "categories",
	}
	categories.RegisterCrudRoutes(api)

	orders := &CrudController[catalog.Order]{
		Service:  NewOrderService(store, v),
		Cache:    cache,
		Resource: "orders",
	}
	orders.RegisterCrudRoutes(api)

	return r, store, cache
}

func seedDoc() catalog.StoreDocument {
	return catalog.StoreDocument{
		Products: []catalog.Product{
			{ID: "p1", Name: "Mug", Price: 9.5, Category: "kitchen", Stock: 3, CreatedAt: 100},
			{ID: "p2", Name: "Plate", Price: 4.0, Category: "kitchen", Stock: 10, CreatedAt: 200},
		},
		Categories: []catalog.Category{
			{ID: "c1", Name: "kitchen", ProductCount: 2},
		},
	}
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestList_BareArray(t *testing.T) {
	r, _, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodGet, "/api/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var items []catalog.Product
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("expected a bare array: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 products, got %d", len(items))
	}
	// Newest first.
	if items[0].ID != "p2" {
		t.Fatalf("expected p2 first, got %s", items[0].ID)
	}
}

func TestList_PaginationEnvelope(t *testing.T) {
	r, _, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodGet, "/api/products?page=1&limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var envelope struct {
		Products   []catalog.Product `json:"products"`
		Pagination struct {
			Page       int  `json:"page"`
			Limit      int  `json:"limit"`
			Total      int  `json:"total"`
			TotalPages int  `json:"totalPages"`
			HasMore    bool `json:"hasMore"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("expected envelope: %v", err)
	}
	if len(envelope.Products) != 1 {
		t.Fatalf("expected 1 product on page, got %d", len(envelope.Products))
	}
	if envelope.Pagination.Total != 2 || envelope.Pagination.TotalPages != 2 || !envelope.Pagination.HasMore {
		t.Fatalf("unexpected pagination: %+v", envelope.Pagination)
	}
}

func TestList_ResponseCached(t *testing.T) {
	r, _, cache := newTestRouter(t, seedDoc())

	doRequest(r, http.MethodGet, "/api/products", nil)
	size, _ := cache.Stats()
	if size != 1 {
		t.Fatalf("expected 1 cached response, got %d", size)
	}
}

func TestCreate_AssignsIDAndInvalidatesCache(t *testing.T) {
	r, store, cache := newTestRouter(t, seedDoc())

	doRequest(r, http.MethodGet, "/api/products", nil)

	w := doRequest(r, http.MethodPost, "/api/products", catalog.Product{
		Name: "Bowl", Price: 7.25, Category: "kitchen",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created catalog.Product
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	if created.CreatedAt == 0 {
		t.Fatal("expected a createdAt stamp")
	}

	size, _ := cache.Stats()
	if size != 0 {
		t.Fatalf("expected product list cache invalidated, %d entries left", size)
	}

	doc, _ := store.Snapshot()
	if len(doc.Products) != 3 {
		t.Fatalf("expected 3 products in store, got %d", len(doc.Products))
	}
	if doc.Categories[0].ProductCount != 3 {
		t.Fatalf("expected category count recomputed to 3, got %d", doc.Categories[0].ProductCount)
	}
	if !store.IsDirty() {
		t.Fatal("expected store marked dirty after create")
	}
}

func TestCreate_InvalidPayload(t *testing.T) {
	r, store, _ := newTestRouter(t, seedDoc())

	// Price must be > 0.
	w := doRequest(r, http.MethodPost, "/api/products", catalog.Product{Name: "Freebie"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if store.IsDirty() {
		t.Fatal("failed create must not dirty the store")
	}
}

func TestUpdate_ByPathID(t *testing.T) {
	r, store, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodPut, "/api/products/p1", catalog.Product{
		Name: "Big Mug", Price: 11, Category: "kitchen", Stock: 3, CreatedAt: 100,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	doc, _ := store.Snapshot()
	if doc.Products[0].Name != "Big Mug" {
		t.Fatalf("expected updated name, got %s", doc.Products[0].Name)
	}
}

func TestUpdate_SelfIdentifiedBody(t *testing.T) {
	r, store, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodPut, "/api/products", map[string]any{
		"_id": "p2", "name": "Dinner Plate", "price": 5.5, "category": "kitchen", "stock": 10,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	doc, _ := store.Snapshot()
	if doc.Products[1].Name != "Dinner Plate" {
		t.Fatalf("expected updated name, got %s", doc.Products[1].Name)
	}
}

func TestUpdate_BodyWithoutIdentity(t *testing.T) {
	r, _, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodPut, "/api/products", map[string]any{"name": "Nameless", "price": 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	r, _, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodPut, "/api/products/nope", catalog.Product{
		Name: "Ghost", Price: 1, Category: "kitchen",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDelete_ByPathAndByQuery(t *testing.T) {
	r, store, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodDelete, "/api/products/p1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doRequest(r, http.MethodDelete, "/api/products?id=p2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on query-form delete, got %d", w.Code)
	}

	doc, _ := store.Snapshot()
	if len(doc.Products) != 0 {
		t.Fatalf("expected empty collection, got %d", len(doc.Products))
	}
	if doc.Categories[0].ProductCount != 0 {
		t.Fatalf("expected category count 0, got %d", doc.Categories[0].ProductCount)
	}
}

func TestDelete_Missing(t *testing.T) {
	r, _, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodDelete, "/api/products/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = doRequest(r, http.MethodDelete, "/api/products", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", w.Code)
	}
}

func TestOrderCreate_ReservesStock(t *testing.T) {
	r, store, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodPost, "/api/orders", catalog.Order{
		UserID: "u1",
		Items:  []catalog.OrderItem{{ProductID: "p1", Quantity: 2, Price: 9.5}},
		Total:  19,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	doc, _ := store.Snapshot()
	if doc.Products[0].Stock != 1 {
		t.Fatalf("expected stock decremented to 1, got %d", doc.Products[0].Stock)
	}
	if doc.Orders[0].Status != "pending" {
		t.Fatalf("expected default status pending, got %s", doc.Orders[0].Status)
	}
}

func TestOrderCreate_InsufficientStock(t *testing.T) {
	r, store, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodPost, "/api/orders", catalog.Order{
		UserID: "u1",
		Items:  []catalog.OrderItem{{ProductID: "p1", Quantity: 99, Price: 9.5}},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	doc, _ := store.Snapshot()
	if doc.Products[0].Stock != 3 {
		t.Fatalf("rejected order must not touch stock, got %d", doc.Products[0].Stock)
	}
	if len(doc.Orders) != 0 {
		t.Fatal("rejected order must not be stored")
	}
}

func TestOrderCreate_UnknownProduct(t *testing.T) {
	r, _, _ := newTestRouter(t, seedDoc())

	w := doRequest(r, http.MethodPost, "/api/orders", catalog.Order{
		UserID: "u1",
		Items:  []catalog.OrderItem{{ProductID: "ghost", Quantity: 1, Price: 1}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
