package catalogrepo

import "context"

// ICatalogRepository is the read-only slice of the storefront catalog the
// checkout needs: unit prices come from here, never from the request body.
type ICatalogRepository interface {
	// VariantPriceCents returns the price of a variant in cents, or ok=false
	// when the variant does not exist.
	VariantPriceCents(ctx context.Context, variantID string) (int64, bool, error)

	// DiscountPercent returns the percent-off for an active discount code,
	// or ok=false when the code is unknown or inactive.
	DiscountPercent(ctx context.Context, code string) (int, bool, error)
}
