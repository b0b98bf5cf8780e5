package parsers

import (
	"io"
	"strconv"
	"strings"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/product"
	pkgerrors "github.com/flojun/oceanstar-admin-page-sub000/pkg/errors"
	"github.com/flojun/oceanstar-admin-page-sub000/pkg/logger"
)

var catalogAliases = map[string]string{
	"상품명":     "name",
	"상품":      "name",
	"키워드":     "keywords",
	"성인가":     "adult_price",
	"성인단가":    "adult_price",
	"아동가":     "child_price",
	"아동단가":    "child_price",
	"구분":      "tier_group",
	"사용":      "is_active",
	"product": "name",
	"adult":   "adult_price",
	"child":   "child_price",
	"tier":    "tier_group",
	"active":  "is_active",
}

// CatalogParser parses the admin-maintained product price catalog.
type CatalogParser struct {
	*BaseParser
}

// NewCatalogParser creates a parser for product catalog files.
func NewCatalogParser(config *ParseConfig) *CatalogParser {
	return &CatalogParser{BaseParser: NewBaseParser(config)}
}

// ParseCatalog parses a catalog file and validates the result as a whole.
// Catalog problems are configuration problems, so unlike the settlement
// and reservation parsers a bad row fails the load instead of being
// skipped.
func (cp *CatalogParser) ParseCatalog(path string) ([]models.ProductPrice, error) {
	file, reader, err := cp.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	required := []string{"name", "keywords", "adult_price", "child_price"}
	positions, err := cp.ReadHeaders(reader, path, catalogAliases, required)
	if err != nil {
		return nil, err
	}

	var products []models.ProductPrice
	line := 1

	for {
		record, err := cp.readRecord(reader)
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidFormat, path, line, "", "", err)
		}

		entry, entryErr := cp.entryFromFields(record, positions, path, line)
		if entryErr != nil {
			return nil, entryErr
		}
		products = append(products, *entry)
	}

	if err := product.ValidateCatalog(products); err != nil {
		return nil, err
	}

	cp.logger.WithFields(logger.Fields{
		"file":     path,
		"products": len(products),
	}).Info("loaded product catalog")

	return products, nil
}

func (cp *CatalogParser) entryFromFields(record []string, positions map[string]int, path string, line int) (*models.ProductPrice, error) {
	entry := &models.ProductPrice{
		Name:      fieldValue(record, positions, "name"),
		Keywords:  fieldValue(record, positions, "keywords"),
		TierGroup: fieldValue(record, positions, "tier_group"),
		IsActive:  true,
	}

	if raw := fieldValue(record, positions, "adult_price"); raw != "" {
		price, err := models.ParseDecimalFromString(raw)
		if err != nil {
			return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidData, path, line, "adult_price", raw, err)
		}
		entry.AdultPrice = price
	}

	if raw := fieldValue(record, positions, "child_price"); raw != "" {
		price, err := models.ParseDecimalFromString(raw)
		if err != nil {
			return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidData, path, line, "child_price", raw, err)
		}
		entry.ChildPrice = price
	}

	if raw := fieldValue(record, positions, "is_active"); raw != "" {
		entry.IsActive = parseBool(raw)
	}

	return entry, nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "y", "yes", "o", "사용", "true", "1":
		return true
	case "n", "no", "x", "미사용", "false", "0":
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return true
	}
	return b
}
