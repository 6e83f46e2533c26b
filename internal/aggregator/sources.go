package aggregator

import (
	"sort"

	"github.com/repairhub/repair-search/internal/config"
	"github.com/repairhub/repair-search/internal/models"
	"github.com/repairhub/repair-search/internal/routes"
	"github.com/repairhub/repair-search/internal/textmatch"
)

// Source names double as metric labels and report names.
const (
	SourceCatalog         = "catalog"
	SourceSpareParts      = "spare_parts"
	SourceServices        = "services"
	SourceShops           = "shops"
	SourceBrands          = "brands"
	SourceBrandCategories = "brand_categories"
	SourceArticles        = "articles"
	SourceInventory       = "inventory"
	sourceShopOwner       = "shop_owner"
)

// projector turns a raw document into a hit when the normalized query
// matches one of the document's matchable fields.
type projector func(d models.Document, query string) (models.Hit, bool)

type source struct {
	name    string
	cfg     config.SourceConfig
	project projector
	// inventory sources read a sub-collection of the signed-in user's shop.
	inventory bool
}

// buildSources returns the remote sources in merge order. Disabled sources
// are kept so they still show up as skipped.
func buildSources(cfg config.SourcesConfig) []source {
	return []source{
		{name: SourceSpareParts, cfg: cfg.SpareParts, project: projectPart},
		{name: SourceServices, cfg: cfg.Services, project: projectService},
		{name: SourceShops, cfg: cfg.Shops, project: projectShop},
		{name: SourceBrands, cfg: cfg.Brands, project: projectBrand},
		{name: SourceBrandCategories, cfg: cfg.BrandCategories, project: projectBrandCategory},
		{name: SourceArticles, cfg: cfg.Articles, project: projectArticle},
		{name: SourceInventory, cfg: cfg.Inventory.SourceConfig, project: projectInventory, inventory: true},
	}
}

func (s source) options() models.QueryOptions {
	opts := models.QueryOptions{Limit: s.cfg.FetchLimit}
	if len(s.cfg.Filter) > 0 {
		opts.Equals = make(map[string]any, len(s.cfg.Filter))
		for k, v := range s.cfg.Filter {
			opts.Equals[k] = v
		}
	}
	return opts
}

// match projects every matching document, moves name-prefix hits ahead of
// the rest without disturbing their relative order, then applies the
// source's result limit.
func (s source) match(docs []models.Document, query string) []models.Hit {
	hits := make([]models.Hit, 0, len(docs))
	for _, d := range docs {
		if h, ok := s.project(d, query); ok {
			hits = append(hits, h)
		}
	}
	rank(hits, query)
	if s.cfg.ResultLimit > 0 && len(hits) > s.cfg.ResultLimit {
		hits = hits[:s.cfg.ResultLimit]
	}
	return hits
}

func rank(hits []models.Hit, query string) {
	sort.SliceStable(hits, func(i, j int) bool {
		return textmatch.HasPrefix(hits[i].Name, query) && !textmatch.HasPrefix(hits[j].Name, query)
	})
}

func projectPart(d models.Document, q string) (models.Hit, bool) {
	name := d.Get("name")
	if name == "" || !textmatch.AnyContains(q, name, d.Get("brand"), d.Get("model"),
		d.Get("description"), d.Get("category"), d.Get("deviceCategory")) {
		return models.Hit{}, false
	}
	return models.Hit{
		ID:       d.ID,
		Type:     models.HitPart,
		Category: models.CategorySpareParts,
		Name:     name,
		URL:      routes.Part(d.ID),
		Detail: models.PartDetail{
			Brand:          d.Get("brand"),
			Model:          d.Get("model"),
			Price:          d.NumberPtr("price"),
			Discount:       d.NumberPtr("discount"),
			Description:    d.Get("description"),
			DeviceCategory: d.Get("deviceCategory"),
		},
	}, true
}

func projectService(d models.Document, q string) (models.Hit, bool) {
	name := d.Get("name")
	if name == "" || !textmatch.AnyContains(q, name, d.Get("category"), d.Get("description")) {
		return models.Hit{}, false
	}
	return models.Hit{
		ID:       d.ID,
		Type:     models.HitService,
		Category: models.CategoryServices,
		Name:     name,
		URL:      routes.Service(d.ID),
		Detail: models.ServiceDetail{
			Price:       d.NumberPtr("price"),
			Discount:    d.NumberPtr("discount"),
			Description: d.Get("description"),
			Tags:        d.Strings("tags"),
		},
	}, true
}

func projectShop(d models.Document, q string) (models.Hit, bool) {
	name := d.Get("shopName")
	services := d.Strings("services")
	if name == "" {
		return models.Hit{}, false
	}
	fields := append([]string{name, d.Get("address")}, services...)
	if !textmatch.AnyContains(q, fields...) {
		return models.Hit{}, false
	}
	return models.Hit{
		ID:       d.ID,
		Type:     models.HitShop,
		Category: models.CategoryShops,
		Name:     name,
		URL:      routes.Shop(d.ID),
		Detail: models.ShopDetail{
			ContactNumber: d.Get("contactNumber"),
			Address:       d.Get("address"),
			Services:      services,
		},
	}, true
}

func projectBrand(d models.Document, q string) (models.Hit, bool) {
	brand := d.Get("brandName")
	categories := stringOrList(d, "category")
	if brand == "" {
		return models.Hit{}, false
	}
	fields := append([]string{brand, d.Get("overview")}, categories...)
	if !textmatch.AnyContains(q, fields...) {
		return models.Hit{}, false
	}
	return models.Hit{
		ID:       d.ID,
		Type:     models.HitBrand,
		Category: models.CategoryBrandPages,
		Name:     brand,
		URL:      routes.Brand(brand),
		Detail: models.BrandDetail{
			Brand:       brand,
			Description: d.Get("overview"),
			Categories:  categories,
		},
	}, true
}

// projectBrandCategory matches on the category alone and names the hit after
// the brand and the first matching category.
func projectBrandCategory(d models.Document, q string) (models.Hit, bool) {
	brand := d.Get("brandName")
	if brand == "" {
		return models.Hit{}, false
	}
	for _, category := range stringOrList(d, "category") {
		if !textmatch.Contains(category, q) {
			continue
		}
		return models.Hit{
			ID:       "category-" + d.ID,
			Type:     models.HitBrandCategory,
			Category: models.CategoryBrandPages,
			Name:     brand + " " + category,
			URL:      routes.BrandCategory(brand, category),
			Detail: models.BrandDetail{
				Brand:      brand,
				Categories: []string{category},
			},
		}, true
	}
	return models.Hit{}, false
}

func projectArticle(d models.Document, q string) (models.Hit, bool) {
	model := d.Get("modelName")
	brand := d.Get("brandName")
	features := d.Strings("features")
	if model == "" {
		return models.Hit{}, false
	}
	fields := append([]string{model, d.Get("overview"), brand}, features...)
	if !textmatch.AnyContains(q, fields...) {
		return models.Hit{}, false
	}
	return models.Hit{
		ID:       d.ID,
		Type:     models.HitArticle,
		Category: models.CategoryArticles,
		Name:     model,
		URL:      routes.Article(brand, model, d.ID),
		Detail: models.ArticleDetail{
			Brand:       brand,
			Model:       model,
			Description: d.Get("overview"),
			Features:    features,
		},
	}, true
}

func projectInventory(d models.Document, q string) (models.Hit, bool) {
	name := d.Get("name")
	if name == "" || !textmatch.AnyContains(q, name, d.Get("brand"), d.Get("model"),
		d.Get("category"), d.Get("description"), d.Get("sku")) {
		return models.Hit{}, false
	}
	var quantity *int
	if n, ok := d.Number("quantity"); ok {
		v := int(n)
		quantity = &v
	}
	return models.Hit{
		ID:       d.ID,
		Type:     models.HitInventory,
		Category: models.CategoryMyInventory,
		Name:     name,
		URL:      routes.Inventory(d.ID),
		Detail: models.InventoryDetail{
			Brand:       d.Get("brand"),
			Model:       d.Get("model"),
			SKU:         d.Get("sku"),
			Price:       d.NumberPtr("price"),
			Quantity:    quantity,
			Description: d.Get("description"),
		},
	}, true
}

// stringOrList reads a field stored either as a single string or as a list.
func stringOrList(d models.Document, field string) []string {
	if s, ok := d.String(field); ok {
		return []string{s}
	}
	return d.Strings(field)
}
