package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type HitType string

const (
	HitService       HitType = "service"
	HitPart          HitType = "part"
	HitShop          HitType = "shop"
	HitInventory     HitType = "inventory"
	HitBrand         HitType = "brand"
	HitBrandCategory HitType = "brand-category"
	HitArticle       HitType = "article"
)

type Category int

const (
	CategoryServices Category = iota
	CategorySpareParts
	CategoryShops
	CategoryMyInventory
	CategoryBrandPages
	CategoryArticles
)

func (c Category) String() string {
	switch c {
	case CategoryServices:
		return "Services"
	case CategorySpareParts:
		return "Spare Parts"
	case CategoryShops:
		return "Shops"
	case CategoryMyInventory:
		return "My Inventory"
	case CategoryBrandPages:
		return "Brand Pages"
	case CategoryArticles:
		return "Articles"
	default:
		return "unknown"
	}
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	for cat := CategoryServices; cat <= CategoryArticles; cat++ {
		if cat.String() == label {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", label)
}

// Display is the cosmetic icon/color pair a renderer shows next to a category.
type Display struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (c Category) Display() Display {
	switch c {
	case CategoryServices:
		return Display{Icon: "wrench", Color: "#2563EB"}
	case CategorySpareParts:
		return Display{Icon: "cpu", Color: "#059669"}
	case CategoryShops:
		return Display{Icon: "store", Color: "#D97706"}
	case CategoryMyInventory:
		return Display{Icon: "package", Color: "#7C3AED"}
	case CategoryBrandPages:
		return Display{Icon: "tag", Color: "#DB2777"}
	case CategoryArticles:
		return Display{Icon: "file-text", Color: "#4B5563"}
	default:
		return Display{Icon: "search", Color: "#6B7280"}
	}
}

// Hit is a single normalized search result. Hits are built fresh per query and
// passed around by value; Detail holds the fields specific to Type.
type Hit struct {
	ID       string   `json:"id"`
	Type     HitType  `json:"type"`
	Category Category `json:"category"`
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Detail   Detail   `json:"detail,omitempty"`
}

// Key identifies the entity behind a hit. Ids are only unique per collection,
// so the type is part of the key.
type Key struct {
	ID   string
	Type HitType
}

func (h Hit) Key() Key {
	return Key{ID: h.ID, Type: h.Type}
}

type hitFields Hit

// UnmarshalJSON picks the Detail payload from the hit's type. A detail on a
// type with no payload of its own is dropped.
func (h *Hit) UnmarshalJSON(data []byte) error {
	aux := struct {
		*hitFields
		Detail json.RawMessage `json:"detail,omitempty"`
	}{hitFields: (*hitFields)(h)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	h.Detail = nil
	if len(aux.Detail) == 0 || string(aux.Detail) == "null" {
		return nil
	}
	var err error
	switch h.Type {
	case HitPart:
		h.Detail, err = decodeDetail[PartDetail](aux.Detail)
	case HitService:
		h.Detail, err = decodeDetail[ServiceDetail](aux.Detail)
	case HitShop:
		h.Detail, err = decodeDetail[ShopDetail](aux.Detail)
	case HitInventory:
		h.Detail, err = decodeDetail[InventoryDetail](aux.Detail)
	case HitBrand, HitBrandCategory:
		h.Detail, err = decodeDetail[BrandDetail](aux.Detail)
	case HitArticle:
		h.Detail, err = decodeDetail[ArticleDetail](aux.Detail)
	}
	if err != nil {
		return fmt.Errorf("decoding %s detail: %w", h.Type, err)
	}
	return nil
}

func decodeDetail[T Detail](data []byte) (Detail, error) {
	var d T
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// Detail is implemented by the per-type payloads below.
type Detail interface {
	isDetail()
}

type PartDetail struct {
	Brand          string   `json:"brand,omitempty"`
	Model          string   `json:"model,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	Discount       *float64 `json:"discount,omitempty"`
	Description    string   `json:"description,omitempty"`
	DeviceCategory string   `json:"device_category,omitempty"`
}

type ServiceDetail struct {
	Price       *float64 `json:"price,omitempty"`
	Discount    *float64 `json:"discount,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type ShopDetail struct {
	ContactNumber string   `json:"contact_number,omitempty"`
	Address       string   `json:"address,omitempty"`
	Services      []string `json:"services,omitempty"`
}

type InventoryDetail struct {
	Brand       string   `json:"brand,omitempty"`
	Model       string   `json:"model,omitempty"`
	SKU         string   `json:"sku,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Description string   `json:"description,omitempty"`
}

// BrandDetail serves both brand and brand-category hits.
type BrandDetail struct {
	Brand       string   `json:"brand"`
	Description string   `json:"description,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

type ArticleDetail struct {
	Brand       string   `json:"brand,omitempty"`
	Model       string   `json:"model,omitempty"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
}

func (PartDetail) isDetail() {}
func (ServiceDetail) isDetail() {}
func (ShopDetail) isDetail() {}
func (InventoryDetail) isDetail() {}
func (BrandDetail) isDetail() {}
func (ArticleDetail) isDetail() {}

// Document is a raw record read from a collection.
type Document struct {
	ID     string
	Fields map[string]any
}

// String returns a non-empty string field. Missing, empty or non-string
// values report false.
func (d Document) String(field string) (string, bool) {
	v, ok := d.Fields[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Get returns the string field or "".
func (d Document) Get(field string) string {
	s, _ := d.String(field)
	return s
}

// Strings returns the string elements of an array field, skipping anything else.
func (d Document) Strings(field string) []string {
	switch v := d.Fields[field].(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Number returns a numeric field. Firestore hands back int64 and float64;
// fixtures decoded from YAML can produce int.
func (d Document) Number(field string) (float64, bool) {
	switch v := d.Fields[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}

func (d Document) NumberPtr(field string) *float64 {
	n, ok := d.Number(field)
	if !ok {
		return nil
	}
	return &n
}

// SearchRequest is one query. UserID is never read from a request body;
// transports fill it from a trusted identity.
type SearchRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"-"`
	RequestID string `json:"request_id,omitempty"`
}

type SourceStatus string

const (
	SourceOK      SourceStatus = "ok"
	SourceFailed  SourceStatus = "failed"
	SourceSkipped SourceStatus = "skipped"
)

type SourceReport struct {
	Source     string       `json:"source"`
	Status     SourceStatus `json:"status"`
	Hits       int          `json:"hits"`
	DurationMs int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Hits    []Hit          `json:"hits"`
	Sources []SourceReport `json:"sources,omitempty"`
	TookMs  int64          `json:"took_ms"`
	// Deduped counts hits dropped by the (id, type) rule.
	Deduped   int       `json:"deduped"`
	Truncated bool      `json:"truncated"`
	At        time.Time `json:"at"`
}

// QueryOptions is everything a collection read can push down to the store:
// exact-match filters and a result limit. Substring matching is never pushed
// down.
type QueryOptions struct {
	Equals map[string]any
	Limit  int
}
