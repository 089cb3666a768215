package catalog

import (
	"encoding/json"
	"reflect"
)

// Metadata holds versioning info for optimistic reload between the cache
// and the data file.
type Metadata struct {
	LastUpdate int64 `json:"lastUpdate"` // Unix timestamp in milliseconds
}

// StoreDocument is the persisted JSON structure: every collection of the
// storefront in one document. Collection keys keep the remote store's
// naming (allProducts, heroBanners, ...); the client data layer resolves
// them through its alias table.
type StoreDocument struct {
	Metadata    Metadata             `json:"metadata"`
	Products    []Product            `json:"allProducts" validate:"dive"`
	Categories  []Category           `json:"allCategories" validate:"dive"`
	Reviews     []Review             `json:"allReviews" validate:"dive"`
	Users       []User               `json:"allUsers" validate:"dive"`
	Orders      []Order              `json:"allOrders" validate:"dive"`
	Coupons     []Coupon             `json:"allCoupons" validate:"dive"`
	Contacts    []Contact            `json:"allContacts" validate:"dive"`
	Sales       []Sale               `json:"allSales" validate:"dive"`
	Banners     []Banner             `json:"heroBanners" validate:"dive"`
	ShippingTax *ShippingTaxSettings `json:"shippingTaxSettings"`
	Tracking    *BusinessTracking    `json:"businessTracking"`
}

// Product is one catalog item.
type Product struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Category    string   `json:"category"`
	Stock       int      `json:"stock" validate:"min=0"`
	Images      []string `json:"images"`
	Rating      float64  `json:"rating" validate:"min=0,max=5"`
	CreatedAt   int64    `json:"createdAt"`
}

// Category groups products; ProductCount is derived and recomputed on
// product mutations, which is why products and categories invalidate each
// other.
type Category struct {
	ID           string `json:"_id"`
	Name         string `json:"name" validate:"required"`
	Image        string `json:"image"`
	ProductCount int    `json:"productCount" validate:"min=0"`
}

// Review is a customer review, hidden until approved.
type Review struct {
	ID        string `json:"_id"`
	ProductID string `json:"productId" validate:"required"`
	UserName  string `json:"userName"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment"`
	Approved  *bool  `json:"approved"`
	CreatedAt int64  `json:"createdAt"`
}

// User is a storefront account.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=customer admin"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	Price     float64 `json:"price" validate:"min=0"`
}

// Order is a placed checkout.
type Order struct {
	ID        string      `json:"_id"`
	UserID    string      `json:"userId" validate:"required"`
	Items     []OrderItem `json:"items" validate:"required,min=1,dive"`
	Total     float64     `json:"total" validate:"min=0"`
	Status    string      `json:"status" validate:"omitempty,oneof=pending paid shipped delivered cancelled"`
	CreatedAt int64       `json:"createdAt"`
}

// Coupon is a discount code.
type Coupon struct {
	ID        string  `json:"_id"`
	Code      string  `json:"code" validate:"required"`
	Discount  float64 `json:"discount" validate:"required,gt=0,lte=100"`
	ExpiresAt int64   `json:"expiresAt"`
}

// Contact is a message from the contact form.
type Contact struct {
	ID       string `json:"_id"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Message  string `json:"message" validate:"required"`
	SentAt   int64  `json:"sentAt"`
	Resolved *bool  `json:"resolved"`
}

// Sale is a flash sale or promotion window over a set of products.
type Sale struct {
	ID         string   `json:"_id"`
	Title      string   `json:"title" validate:"required"`
	ProductIDs []string `json:"productIds"`
	Discount   float64  `json:"discount" validate:"min=0,lte=100"`
	StartsAt   int64    `json:"startsAt"`
	EndsAt     int64    `json:"endsAt"`
	Active     *bool    `json:"active"`
}

// Banner is a hero carousel entry.
type Banner struct {
	ID       string `json:"_id"`
	Title    string `json:"title" validate:"required"`
	Image    string `json:"image" validate:"required"`
	Link     string `json:"link"`
	Position int    `json:"position" validate:"min=0"`
	Active   *bool  `json:"active"`
}

// ShippingTaxSettings is the singleton checkout configuration.
type ShippingTaxSettings struct {
	ID                    string  `json:"_id"`
	FlatRate              float64 `json:"flatRate" validate:"min=0"`
	FreeShippingThreshold float64 `json:"freeShippingThreshold" validate:"min=0"`
	TaxRate               float64 `json:"taxRate" validate:"min=0,lte=100"`
}

// BusinessEntry is one revenue or investment line.
type BusinessEntry struct {
	ID     string  `json:"_id"`
	Label  string  `json:"label" validate:"required"`
	Amount float64 `json:"amount"`
	Kind   string  `json:"kind" validate:"required,oneof=revenue investment"`
}

// BusinessTracking is the singleton revenue/investment ledger.
type BusinessTracking struct {
	ID              string          `json:"_id"`
	TotalRevenue    float64         `json:"totalRevenue" validate:"min=0"`
	TotalInvestment float64         `json:"totalInvestment" validate:"min=0"`
	Entries         []BusinessEntry `json:"entries" validate:"dive"`
}

// ApplyDefaults sets fallback values after decode.
func (d *StoreDocument) ApplyDefaults() {
	if d.Products == nil {
		d.Products = []Product{}
	}
	for i := range d.Products {
		d.Products[i].applyDefaults()
	}
	if d.Categories == nil {
		d.Categories = []Category{}
	}
	if d.Reviews == nil {
		d.Reviews = []Review{}
	}
	for i := range d.Reviews {
		d.Reviews[i].applyDefaults()
	}
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Orders == nil {
		d.Orders = []Order{}
	}
	if d.Coupons == nil {
		d.Coupons = []Coupon{}
	}
	if d.Contacts == nil {
		d.Contacts = []Contact{}
	}
	for i := range d.Contacts {
		d.Contacts[i].applyDefaults()
	}
	if d.Sales == nil {
		d.Sales = []Sale{}
	}
	for i := range d.Sales {
		d.Sales[i].applyDefaults()
	}
	if d.Banners == nil {
		d.Banners = []Banner{}
	}
	for i := range d.Banners {
		d.Banners[i].applyDefaults()
	}
	if d.Tracking != nil && d.Tracking.Entries == nil {
		d.Tracking.Entries = []BusinessEntry{}
	}
}

func (p *Product) applyDefaults() {
	if p.Images == nil {
		p.Images = []string{}
	}
}

func (r *Review) applyDefaults() {
	if r.Approved == nil {
		v := false
		r.Approved = &v
	}
}

func (c *Contact) applyDefaults() {
	if c.Resolved == nil {
		v := false
		c.Resolved = &v
	}
}

func (s *Sale) applyDefaults() {
	if s.ProductIDs == nil {
		s.ProductIDs = []string{}
	}
	if s.Active == nil {
		v := false
		s.Active = &v
	}
}

func (b *Banner) applyDefaults() {
	if b.Active == nil {
		v := false
		b.Active = &v
	}
}

// AreStoreDocumentsEqual compares two documents ignoring Metadata.
// Uses JSON serialization for flexible comparison.
func AreStoreDocumentsEqual(a, b *StoreDocument) bool {
	if a == nil || b == nil {
		return a == b
	}

	aBytes, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bBytes, err := json.Marshal(b)
	if err != nil {
		return false
	}

	var aMap, bMap map[string]interface{}
	if err := json.Unmarshal(aBytes, &aMap); err != nil {
		return false
	}
	if err := json.Unmarshal(bBytes, &bMap); err != nil {
		return false
	}

	delete(aMap, "metadata")
	delete(bMap, "metadata")

	return reflect.DeepEqual(aMap, bMap)
}
