// Package routes synthesizes the relative navigation paths attached to hits.
// Paths are built from source fields, never read verbatim from a document.
package routes

import (
	"net/url"

	"github.com/gosimple/slug"
)

func Service(id string) string {
	return "/services/" + url.PathEscape(id)
}

func Part(id string) string {
	return "/spare-parts/" + url.PathEscape(id)
}

func Shop(id string) string {
	return "/shops/" + url.PathEscape(id)
}

func Inventory(id string) string {
	return "/dashboard/inventory/" + url.PathEscape(id)
}

func Brand(brand string) string {
	return "/brands/" + Slug(brand)
}

func BrandCategory(brand, category string) string {
	return "/brands/" + Slug(brand) + "/" + Slug(category)
}

// Article links a model page under its brand. The id is used when the page
// has no model name to slug.
func Article(brand, model, id string) string {
	if model == "" {
		return "/articles/" + url.PathEscape(id)
	}
	if brand == "" {
		return "/models/" + Slug(model)
	}
	return "/brands/" + Slug(brand) + "/" + Slug(model)
}

// Search links a free-text term to the listing page of one section.
func Search(section, term string) string {
	return "/" + section + "?q=" + url.QueryEscape(term)
}

func Slug(s string) string {
	return slug.Make(s)
}
