package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{CategoryServices, "Services"},
		{CategorySpareParts, "Spare Parts"},
		{CategoryShops, "Shops"},
		{CategoryMyInventory, "My Inventory"},
		{CategoryBrandPages, "Brand Pages"},
		{CategoryArticles, "Articles"},
		{Category(99), "unknown"},
		{Category(-1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.category.String()
			if got != tt.want {
				t.Errorf("Category(%d).String() = %q, want %q", tt.category, got, tt.want)
			}
		})
	}
}

func TestCategoryDisplay_DistinctPerCategory(t *testing.T) {
	seen := make(map[string]Category)
	for c := CategoryServices; c <= CategoryArticles; c++ {
		d := c.Display()
		if d.Icon == "" || d.Color == "" {
			t.Errorf("category %s has empty display %+v", c, d)
		}
		if prev, ok := seen[d.Icon]; ok {
			t.Errorf("icon %q shared by %s and %s", d.Icon, prev, c)
		}
		seen[d.Icon] = c
	}
}

func TestHitKey(t *testing.T) {
	a := Hit{ID: "1", Type: HitPart}
	b := Hit{ID: "1", Type: HitService}
	c := Hit{ID: "1", Type: HitPart, Name: "other name"}

	if a.Key() == b.Key() {
		t.Error("same id with different types must not share a key")
	}
	if a.Key() != c.Key() {
		t.Error("same id and type must share a key")
	}
}

func TestHitJSON(t *testing.T) {
	price := 49.5
	h := Hit{
		ID:       "p1",
		Type:     HitPart,
		Category: CategorySpareParts,
		Name:     "iPhone Battery",
		URL:      "/spare-parts/p1",
		Detail:   PartDetail{Brand: "Apple", Price: &price},
	}

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"category":"Spare Parts"`, `"type":"part"`, `"brand":"Apple"`, `"price":49.5`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
	if strings.Contains(s, `"discount"`) {
		t.Errorf("unset optional field should be omitted: %s", s)
	}
}

func TestHitJSON_NoDetail(t *testing.T) {
	data, err := json.Marshal(Hit{ID: "s1", Type: HitService, Name: "Screen Repair"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"detail"`) {
		t.Errorf("nil detail should be omitted: %s", data)
	}
}

func TestHitJSON_RoundTrip(t *testing.T) {
	price := 120.0
	qty := 3
	hits := []Hit{
		{ID: "p1", Type: HitPart, Category: CategorySpareParts, Name: "iPhone Battery", URL: "/spare-parts/p1", Detail: PartDetail{Brand: "Apple", Price: &price}},
		{ID: "s1", Type: HitService, Category: CategoryServices, Name: "Screen Repair", URL: "/services/s1", Detail: ServiceDetail{Tags: []string{"screen"}}},
		{ID: "shop-1", Type: HitShop, Category: CategoryShops, Name: "Fix Hub", URL: "/shops/shop-1", Detail: ShopDetail{Address: "1 Main St"}},
		{ID: "i1", Type: HitInventory, Category: CategoryMyInventory, Name: "iPhone Glass", URL: "/dashboard/inventory/i1", Detail: InventoryDetail{SKU: "G-1", Quantity: &qty}},
		{ID: "b1", Type: HitBrand, Category: CategoryBrandPages, Name: "Apple", URL: "/brands/apple", Detail: BrandDetail{Brand: "Apple"}},
		{ID: "category-b1", Type: HitBrandCategory, Category: CategoryBrandPages, Name: "Apple Phones", URL: "/brands/apple/phones", Detail: BrandDetail{Brand: "Apple", Categories: []string{"Phones"}}},
		{ID: "a1", Type: HitArticle, Category: CategoryArticles, Name: "iPhone 13", URL: "/models/a1", Detail: ArticleDetail{Model: "iPhone 13"}},
		{ID: "s2", Type: HitService, Category: CategoryServices, Name: "Battery Swap", URL: "/services/s2"},
	}

	for _, want := range hits {
		t.Run(string(want.Type)+"/"+want.ID, func(t *testing.T) {
			data, err := json.Marshal(want)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got Hit
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal %s: %v", data, err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip changed the hit\n got: %+v\nwant: %+v", got, want)
			}
		})
	}
}

func TestHitJSON_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown category", `{"id":"x","type":"part","category":"Gadgets"}`},
		{"numeric category", `{"id":"x","type":"part","category":1}`},
		{"detail of the wrong shape", `{"id":"x","type":"part","category":"Spare Parts","detail":{"price":"cheap"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h Hit
			if err := json.Unmarshal([]byte(tt.data), &h); err == nil {
				t.Errorf("expected error decoding %s, got %+v", tt.data, h)
			}
		})
	}
}

func TestHitJSON_UnknownTypeDropsDetail(t *testing.T) {
	var h Hit
	if err := json.Unmarshal([]byte(`{"id":"x","type":"video","category":"Articles","detail":{"brand":"Apple"}}`), &h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Detail != nil {
		t.Errorf("expected no detail, got %#v", h.Detail)
	}
	if h.Category != CategoryArticles {
		t.Errorf("expected Articles, got %s", h.Category)
	}
}

func TestSearchRequest_UserIDNotDecoded(t *testing.T) {
	var req SearchRequest
	if err := json.Unmarshal([]byte(`{"query":"battery","user_id":"u1"}`), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Query != "battery" || req.UserID != "" {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestDocumentString(t *testing.T) {
	d := Document{ID: "x", Fields: map[string]any{
		"name":  "Battery",
		"empty": "",
		"num":   12,
	}}

	if s, ok := d.String("name"); !ok || s != "Battery" {
		t.Errorf("String(name) = %q, %v", s, ok)
	}
	if _, ok := d.String("empty"); ok {
		t.Error("empty string should report false")
	}
	if _, ok := d.String("num"); ok {
		t.Error("non-string should report false")
	}
	if _, ok := d.String("missing"); ok {
		t.Error("missing field should report false")
	}
	if d.Get("missing") != "" {
		t.Error("Get on missing field should be empty")
	}
}

func TestDocumentString_NilFields(t *testing.T) {
	var d Document
	if _, ok := d.String("name"); ok {
		t.Error("nil fields should report false")
	}
	if got := d.Strings("tags"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestDocumentStrings(t *testing.T) {
	d := Document{Fields: map[string]any{
		"mixed": []any{"Screen", 3, "", "Battery", nil},
		"typed": []string{"a", "", "b"},
		"str":   "not a list",
	}}

	mixed := d.Strings("mixed")
	if len(mixed) != 2 || mixed[0] != "Screen" || mixed[1] != "Battery" {
		t.Errorf("unexpected mixed: %v", mixed)
	}
	typed := d.Strings("typed")
	if len(typed) != 2 {
		t.Errorf("unexpected typed: %v", typed)
	}
	if d.Strings("str") != nil {
		t.Error("scalar field should not be treated as list")
	}
}

func TestDocumentNumber(t *testing.T) {
	d := Document{Fields: map[string]any{
		"f64": 1.5,
		"i64": int64(7),
		"int": 3,
		"str": "9",
	}}

	tests := []struct {
		field string
		want  float64
		ok    bool
	}{
		{"f64", 1.5, true},
		{"i64", 7, true},
		{"int", 3, true},
		{"str", 0, false},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := d.Number(tt.field)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Number(%q) = %v, %v; want %v, %v", tt.field, got, ok, tt.want, tt.ok)
			}
		})
	}

	if d.NumberPtr("missing") != nil {
		t.Error("NumberPtr on missing field should be nil")
	}
	if p := d.NumberPtr("int"); p == nil || *p != 3 {
		t.Errorf("NumberPtr(int) = %v", p)
	}
}
