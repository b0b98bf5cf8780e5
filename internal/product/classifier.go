// Package product classifies raw booking text against the admin-maintained
// product price catalog and validates the catalog at the boundary.
package product

import (
	"strings"
	"unicode/utf8"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
)

// maxRawOptionRunes is the length up to which an unclassified raw option
// is shown verbatim instead of falling back to the product name.
const maxRawOptionRunes = 15

// ClassifierResult is the outcome of classifying raw product/option text.
// A nil Product with a non-empty DisplayName is the heuristic fallback; a
// fully empty result means nothing usable was supplied. Classification
// never fails.
type ClassifierResult struct {
	Product     *models.ProductPrice
	DisplayName string
}

// Matched reports whether a catalog product was identified.
func (r ClassifierResult) Matched() bool {
	return r.Product != nil
}

// displayLabels maps keyword families in a matched product's name to the
// short canonical session labels the dashboard renders.
var displayLabels = []struct {
	keywords []string
	label    string
}{
	{[]string{"거북이", "스노클", "turtle", "snorkel"}, "1/2부"},
	{[]string{"선셋", "sunset"}, "3부"},
}

// Classify maps raw booking text to a catalog product and display label.
// The option text is preferred; the platform product name is the fallback.
// Catalog order is significant: the first active product with a keyword
// hit wins.
func Classify(option, productName string, products []models.ProductPrice) ClassifierResult {
	text := strings.TrimSpace(option)
	if text == "" {
		text = strings.TrimSpace(productName)
	}

	for i := range products {
		p := &products[i]
		if !p.IsActive {
			continue
		}
		if p.MatchesText(text) {
			return ClassifierResult{
				Product:     p,
				DisplayName: DisplayLabel(p.Name),
			}
		}
	}

	// No catalog hit: short raw options read fine as-is, long ones are
	// platform boilerplate and the product name is the better fallback.
	if opt := strings.TrimSpace(option); opt != "" && utf8.RuneCountInString(opt) <= maxRawOptionRunes {
		return ClassifierResult{DisplayName: opt}
	}

	if name := strings.TrimSpace(productName); name != "" {
		return ClassifierResult{DisplayName: name}
	}

	return ClassifierResult{}
}

// ClassifyGroup classifies an excel group using its retained raw option
// text, falling back to the platform product name.
func ClassifyGroup(group *models.ExcelGroup, products []models.ProductPrice) ClassifierResult {
	return Classify(group.Option, group.ProductName, products)
}

// DisplayLabel maps a catalog product name to its short canonical display
// label; names outside the known keyword families are returned unchanged.
func DisplayLabel(name string) string {
	lowered := strings.ToLower(name)
	for _, dl := range displayLabels {
		for _, kw := range dl.keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				return dl.label
			}
		}
	}
	return name
}
