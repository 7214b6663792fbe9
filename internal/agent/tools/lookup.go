package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	errx "github.com/webshop-agent/server/internal/core/error"
	logx "github.com/webshop-agent/server/pkg/logger"
)

// GetProductsByIDs fetches each id from the catalog and renders a compact
// name + url list for the model to quote back to the user. Ids the catalog
// cannot resolve are skipped.
func (s *Service) GetProductsByIDs(ctx context.Context, args *GetProductsByIDsArgs) (string, error) {
	var b strings.Builder
	found := 0
	for _, id := range args.ProductIDs {
		product, err := s.catalog.GetByID(ctx, uint64(id))
		if err != nil {
			if errors.Is(err, errx.ErrCatalogNotFound) {
				logx.Warn().Uint64("product_id", uint64(id)).Msg("catalog lookup skipping unknown id")
				continue
			}
			return "", err
		}
		fmt.Fprintf(&b, "Product name: %s\nProduct url: %s\n", product.Title, product.URL)
		found++
	}
	if found == 0 {
		return "None of the requested product ids exist in the catalog.", nil
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
