package entity

import (
	"fmt"
	"sort"
)

// Name identifies one cached collection.
type Name string

const (
	Products            Name = "products"
	Categories          Name = "categories"
	Reviews             Name = "reviews"
	Users               Name = "users"
	Orders              Name = "orders"
	Coupons             Name = "coupons"
	Contacts            Name = "contacts"
	Sales               Name = "sales"
	Banners             Name = "banners"
	ShippingTaxSettings Name = "shippingTaxSettings"
	BusinessTracking    Name = "businessTracking"
)

// All lists every known entity in a stable order.
func All() []Name {
	return []Name{
		Products, Categories, Reviews, Users, Orders, Coupons,
		Contacts, Sales, Banners, ShippingTaxSettings, BusinessTracking,
	}
}

var known = func() map[Name]struct{} {
	m := make(map[Name]struct{})
	for _, n := range All() {
		m[n] = struct{}{}
	}
	return m
}()

// singletons hold one settings object instead of a list of records.
var singletons = map[Name]struct{}{
	ShippingTaxSettings: {},
	BusinessTracking:    {},
}

// IsKnown reports whether n names a registered entity.
func IsKnown(n Name) bool {
	_, ok := known[n]
	return ok
}

// IsSingleton reports whether the entity holds a single settings document
// rather than a collection.
func IsSingleton(n Name) bool {
	_, ok := singletons[n]
	return ok
}

// aliases maps remote collection names onto cache entity names. The remote
// store kept its Mongo-era collection names (allProducts, heroBanners, ...)
// while the cache uses the short form.
var aliases = map[string]Name{
	"allProducts":   Products,
	"allCategories": Categories,
	"allReviews":    Reviews,
	"allUsers":      Users,
	"allOrders":     Orders,
	"allCoupons":    Coupons,
	"allContacts":   Contacts,
	"allSales":      Sales,
	"heroBanners":   Banners,
}

// Resolve maps a remote collection name or a cache entity name to the
// canonical entity Name. An unresolvable name is a configuration error.
func Resolve(name string) (Name, error) {
	if n, ok := aliases[name]; ok {
		return n, nil
	}
	n := Name(name)
	if IsKnown(n) {
		return n, nil
	}
	return "", fmt.Errorf("unresolvable entity name %q", name)
}

// Aliases returns the remote-name side of the alias table, sorted.
// Exposed for tooling; the table itself stays private.
func Aliases() []string {
	out := make([]string, 0, len(aliases))
	for a := range aliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
