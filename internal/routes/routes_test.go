package routes

import "testing"

func TestRoutes(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"service", Service("svc-1"), "/services/svc-1"},
		{"part", Part("p 1"), "/spare-parts/p%201"},
		{"shop", Shop("shop1"), "/shops/shop1"},
		{"inventory", Inventory("inv9"), "/dashboard/inventory/inv9"},
		{"brand", Brand("Samsung"), "/brands/samsung"},
		{"brand category", BrandCategory("Samsung", "Mobile Phones"), "/brands/samsung/mobile-phones"},
		{"article", Article("Apple", "iPhone 13 Pro", "m1"), "/brands/apple/iphone-13-pro"},
		{"article without brand", Article("", "Pixel 7", "m2"), "/models/pixel-7"},
		{"article without model", Article("Google", "", "m3"), "/articles/m3"},
		{"search", Search("services", "screen repair"), "/services?q=screen+repair"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("  OnePlus 9 PRO  "); got != "oneplus-9-pro" {
		t.Errorf("Slug = %q", got)
	}
}
