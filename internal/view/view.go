// Package view holds pure projections over cached entity data. Selectors
// never trigger a fetch: they read whatever is currently resident, and the
// caller is responsible for having fetched the entity at least once.
package view

import (
	"github.com/veloshop/storefront/internal/datastore"
	"github.com/veloshop/storefront/internal/entity"
)

// Store is the read contract selectors need.
type Store interface {
	State(name entity.Name) datastore.Record
}

// DocumentByID finds a document by canonical identity in any entity.
func DocumentByID(s Store, name entity.Name, id string) (entity.Document, bool) {
	for _, d := range s.State(name).Data {
		if d.ID() == id {
			return d, true
		}
	}
	return nil, false
}

func ProductByID(s Store, id string) (entity.Document, bool) {
	return DocumentByID(s, entity.Products, id)
}

func CategoryByID(s Store, id string) (entity.Document, bool) {
	return DocumentByID(s, entity.Categories, id)
}

func UserByID(s Store, id string) (entity.Document, bool) {
	return DocumentByID(s, entity.Users, id)
}

func OrderByID(s Store, id string) (entity.Document, bool) {
	return DocumentByID(s, entity.Orders, id)
}

// ReviewsByProduct filters resident reviews by owning product.
func ReviewsByProduct(s Store, productID string) []entity.Document {
	return filter(s.State(entity.Reviews).Data, func(d entity.Document) bool {
		return stringField(d, "productId") == productID
	})
}

// ApprovedReviews returns reviews flagged approved under either of the two
// flag names the remote source has used over time.
func ApprovedReviews(s Store) []entity.Document {
	return filter(s.State(entity.Reviews).Data, func(d entity.Document) bool {
		return boolField(d, "approved") || boolField(d, "isApproved")
	})
}

// OrdersByUser filters resident orders by owning user.
func OrdersByUser(s Store, userID string) []entity.Document {
	return filter(s.State(entity.Orders).Data, func(d entity.Document) bool {
		return stringField(d, "userId") == userID
	})
}

// ActiveSales returns sales currently flagged active.
func ActiveSales(s Store) []entity.Document {
	return filter(s.State(entity.Sales).Data, func(d entity.Document) bool {
		return boolField(d, "active") || boolField(d, "isActive")
	})
}

// ActiveBanners returns hero banners currently flagged active.
func ActiveBanners(s Store) []entity.Document {
	return filter(s.State(entity.Banners).Data, func(d entity.Document) bool {
		return boolField(d, "active") || boolField(d, "isActive")
	})
}

func filter(docs []entity.Document, keep func(entity.Document) bool) []entity.Document {
	var out []entity.Document
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func stringField(d entity.Document, key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

func boolField(d entity.Document, key string) bool {
	v, ok := d[key].(bool)
	return ok && v
}
