package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Sort orders accepted by Filters.SortBy
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// SearchLimit caps the number of search results
const SearchLimit = 20

// Filters narrows a product listing
type Filters struct {
	Category string           `form:"category"`
	MinPrice *decimal.Decimal `form:"-"`
	MaxPrice *decimal.Decimal `form:"-"`
	Brand    string           `form:"brand"`
	Rating   float64          `form:"rating"`
	InStock  bool             `form:"in_stock"`
	SortBy   string           `form:"sort_by"`
}

// Search filters an in-memory product list by a case-insensitive match on
// name, description or tags. An empty query matches nothing.
func Search(products []Product, query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []Product{}
	}

	results := make([]Product, 0)
	for _, p := range products {
		if matches(p, query) {
			results = append(results, p)
			if len(results) == SearchLimit {
				break
			}
		}
	}
	return results
}

func matches(p Product, query string) bool {
	if strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.EqualFold(tag, query) {
			return true
		}
	}
	return false
}
