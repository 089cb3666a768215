package controller

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/veloshop/storefront/internal/catalog"
	"github.com/veloshop/storefront/internal/docstore"
)

// NewProductService builds the product collection. Mutations recompute the
// per-category product counts since categories expose them as derived
// data.
func NewProductService(store docstore.MutableStore, v *validator.Validate) *Collection[catalog.Product] {
	return NewCollection(store, v,
		func(d *catalog.StoreDocument) *[]catalog.Product { return &d.Products },
		func(p *catalog.Product) string { return p.ID },
		func(p *catalog.Product, id string) { p.ID = id },
	).WithWriteHook(func(_ *catalog.StoreDocument, p *catalog.Product) error {
		if p.CreatedAt == 0 {
			p.CreatedAt = time.Now().UnixMilli()
		}
		return nil
	}).WithAfterChange(recountCategories)
}

// recountCategories recomputes every category's ProductCount from the
// current products.
func recountCategories(doc *catalog.StoreDocument) error {
	counts := make(map[string]int, len(doc.Categories))
	for i := range doc.Products {
		counts[doc.Products[i].Category]++
	}
	for i := range doc.Categories {
		doc.Categories[i].ProductCount = counts[doc.Categories[i].Name]
	}
	return nil
}

// NewCategoryService builds the category collection.
func NewCategoryService(store docstore.MutableStore, v *validator.Validate) *Collection[catalog.Category] {
	return NewCollection(store, v,
		func(d *catalog.StoreDocument) *[]catalog.Category { return &d.Categories },
		func(c *catalog.Category) string { return c.ID },
		func(c *catalog.Category, id string) { c.ID = id },
	).WithAfterChange(recountCategories)
}

// NewReviewService builds the review collection. New reviews start
// unapproved.
func NewReviewService(store docstore.MutableStore, v *validator.Validate) *Collection[catalog.Review] {
	return NewCollection(store, v,
		func(d *catalog.StoreDocument) *[]catalog.Review { return &d.Reviews },
		func(r *catalog.Review) string { return r.ID },
		func(r *catalog.Review, id string) { r.ID = id },
	).WithWriteHook(func(_ *catalog.StoreDocument, r *catalog.Review) error {
		if r.Approved == nil {
			approved := false
			r.Approved = &approved
		}
		if r.CreatedAt == 0 {
			r.CreatedAt = time.Now().UnixMilli()
		}
		return nil
	})
}

// NewUserService builds the user collection.
func NewUserService(store docstore.MutableStore, v *validator.Validate) *Collection[catalog.User] {
	return NewCollection(store, v,
		func(d *catalog.StoreDocument) *[]catalog.User { return &d.Users },
		func(u *catalog.User) string { return u.ID },
		func(u *catalog.User, id string) { u.ID = id },
	)
}

// NewOrderService builds the order collection. Creating an order checks
// and decrements product stock inside the same store mutation, so two
// concurrent checkouts cannot both take the last item.
func NewOrderService(store docstore.MutableStore, v *validator.Validate) *Collection[catalog.Order] {
	return NewCollection(store, v,
		func(d *catalog.StoreDocument) *[]catalog.Order { return &d.Orders },
		func(o *catalog.Order) string { return o.ID },
		func(o *catalog.Order, id string) { o.ID = id },
	).WithWriteHook(func(doc *catalog.StoreDocument, o *catalog.Order) error {
		if o.CreatedAt == 0 {
			o.CreatedAt = time.Now().UnixMilli()
		}
		if o.Status == "" {
			o.Status = "pending"
		}
		return reserveStock(doc, o)
	})
}

// reserveStock decrements product stock for each order line, failing the
// whole order when any product lacks inventory.
func reserveStock(doc *catalog.StoreDocument, o *catalog.Order) error {
	byID := make(map[string]*catalog.Product, len(doc.Products))
	for i := range doc.Products {
		byID[doc.Products[i].ID] = &doc.Products[i]
	}

	for _, item := range o.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return fmt.Errorf("%w: unknown product %s", errInvalid, item.ProductID)
		}
		if p.Stock < item.Quantity {
			return fmt.Errorf("%w: insufficient stock for product %s", ErrConflict, item.ProductID)
		}
	}
	for _, item := range o.Items {
		byID[item.ProductID].Stock -= item.Quantity
	}
	return nil
}

// NewCouponService builds the coupon collection.
func NewCouponService(store docstore.MutableStore, v *validator.Validate) *Collection[catalog.Coupon] {
	return NewCollection(store, v,
		func(d *catalog.StoreDocument) *[]catalog.Coupon { return &d.Coupons },
		func(c *catalog.Coupon) string { return c.ID },
		func(c *catalog.Coupon, id string) { c.ID = id },
	)
}

// NewContactService builds the contact message collection.
func NewContactService(store docstore.MutableStore, v *validator.Validate) *Collection[catalog.Contact] {
	return NewCollection(store, v,
		func(d *catalog.StoreDocument) *[]catalog.Contact { return &d.Contacts },
		func(c *catalog.Contact) string { return c.ID },
		func(c *catalog.Contact, id string) { c.ID = id },
	).WithWriteHook(func(_ *catalog.StoreDocument, c *catalog.Contact) error {
		if c.SentAt == 0 {
			c.SentAt = time.Now().UnixMilli()
		}
		return nil
	})
}

// NewSaleService builds the sale collection.
func NewSaleService(store docstore.MutableStore, v *validator.Validate) *Collection[catalog.Sale] {
	return NewCollection(store, v,
		func(d *catalog.StoreDocument) *[]catalog.Sale { return &d.Sales },
		func(s *catalog.Sale) string { return s.ID },
		func(s *catalog.Sale, id string) { s.ID = id },
	)
}

// NewBannerService builds the hero banner collection.
func NewBannerService(store docstore.MutableStore, v *validator.Validate) *Collection[catalog.Banner] {
	return NewCollection(store, v,
		func(d *catalog.StoreDocument) *[]catalog.Banner { return &d.Banners },
		func(b *catalog.Banner) string { return b.ID },
		func(b *catalog.Banner, id string) { b.ID = id },
	)
}
