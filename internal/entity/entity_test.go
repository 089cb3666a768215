package entity

import "testing"

func TestResolve_Aliases(t *testing.T) {
	tests := []struct {
		in   string
		want Name
	}{
		{"allProducts", Products},
		{"allCategories", Categories},
		{"allReviews", Reviews},
		{"allUsers", Users},
		{"allOrders", Orders},
		{"allCoupons", Coupons},
		{"allContacts", Contacts},
		{"allSales", Sales},
		{"heroBanners", Banners},
	}

	for _, tt := range tests {
		got, err := Resolve(tt.in)
		if err != nil {
			t.Errorf("Resolve(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve_DirectNames(t *testing.T) {
	for _, n := range All() {
		got, err := Resolve(string(n))
		if err != nil {
			t.Errorf("Resolve(%q) returned error: %v", n, err)
		}
		if got != n {
			t.Errorf("Resolve(%q) = %q, want identity", n, got)
		}
	}
}

func TestResolve_Unknown(t *testing.T) {
	if _, err := Resolve("warehouses"); err == nil {
		t.Error("expected error for unknown entity name")
	}
}

func TestIsSingleton(t *testing.T) {
	if !IsSingleton(ShippingTaxSettings) {
		t.Error("shippingTaxSettings should be a singleton")
	}
	if !IsSingleton(BusinessTracking) {
		t.Error("businessTracking should be a singleton")
	}
	if IsSingleton(Products) {
		t.Error("products should not be a singleton")
	}
}

func TestDocument_ID(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"canonical key", Document{"id": "5"}, "5"},
		{"mongo key", Document{"_id": "7"}, "7"},
		{"both keys prefers id", Document{"id": "a", "_id": "b"}, "a"},
		{"no identity", Document{"name": "x"}, ""},
		{"non-string identity", Document{"id": 12}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.ID(); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	d := Normalize(Document{"_id": "42", "name": "chair"})
	if d.ID() != "42" {
		t.Errorf("expected id 42, got %q", d.ID())
	}
	if _, ok := d["_id"]; ok {
		t.Error("expected _id key to be removed")
	}

	// id already present wins; _id is discarded
	d = Normalize(Document{"_id": "old", "id": "new"})
	if d["id"] != "new" {
		t.Errorf("expected existing id to win, got %v", d["id"])
	}
}

func TestClone_Isolation(t *testing.T) {
	orig := Document{
		"id":   "1",
		"tags": []any{"a", "b"},
		"meta": map[string]any{"color": "red"},
	}
	cp := orig.Clone()

	cp["id"] = "2"
	cp["tags"].([]any)[0] = "z"
	cp["meta"].(map[string]any)["color"] = "blue"

	if orig["id"] != "1" {
		t.Error("clone mutation leaked into original id")
	}
	if orig["tags"].([]any)[0] != "a" {
		t.Error("clone mutation leaked into original slice")
	}
	if orig["meta"].(map[string]any)["color"] != "red" {
		t.Error("clone mutation leaked into original nested map")
	}
}

func TestNewGraph_Valid(t *testing.T) {
	g, err := NewGraph(DefaultEdges())
	if err != nil {
		t.Fatalf("expected default edges to validate: %v", err)
	}

	related := g.Related(Orders)
	if len(related) != 2 {
		t.Fatalf("expected orders to relate to 2 entities, got %d", len(related))
	}
}

func TestNewGraph_SelfEdge(t *testing.T) {
	_, err := NewGraph(map[Name][]Name{Products: {Products}})
	if err == nil {
		t.Error("expected error for self edge")
	}
}

func TestNewGraph_UnknownEntity(t *testing.T) {
	_, err := NewGraph(map[Name][]Name{Products: {"warehouses"}})
	if err == nil {
		t.Error("expected error for unknown target entity")
	}
	_, err = NewGraph(map[Name][]Name{"warehouses": {Products}})
	if err == nil {
		t.Error("expected error for unknown source entity")
	}
}

func TestNewGraph_DuplicateEdge(t *testing.T) {
	_, err := NewGraph(map[Name][]Name{Reviews: {Products, Products}})
	if err == nil {
		t.Error("expected error for duplicate edge")
	}
}

func TestGraph_RelatedReturnsCopy(t *testing.T) {
	g := DefaultGraph()
	r := g.Related(Products)
	if len(r) == 0 {
		t.Fatal("expected products to have related entities")
	}
	r[0] = "mutated"
	if g.Related(Products)[0] == "mutated" {
		t.Error("Related must return a copy")
	}
}
