package catalogrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/moonrisegoods/nps/internal/infrastructure/database"
)

type catalogRepositoryImpl struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ICatalogRepository {
	return &catalogRepositoryImpl{
		db:     db.Db,
		logger: logger,
	}
}

func (r *catalogRepositoryImpl) VariantPriceCents(ctx context.Context, variantID string) (int64, bool, error) {
	const query = `SELECT price_cents FROM product_variants WHERE id = $1`

	var priceCents int64
	err := r.db.QueryRowContext(ctx, query, variantID).Scan(&priceCents)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("variant_id", variantID).Msg("Failed to look up variant price")
		return 0, false, fmt.Errorf("failed to look up variant price: %w", err)
	}

	return priceCents, true, nil
}

func (r *catalogRepositoryImpl) DiscountPercent(ctx context.Context, code string) (int, bool, error) {
	const query = `SELECT percent_off FROM discount_codes WHERE code = $1 AND active`

	var percentOff int
	err := r.db.QueryRowContext(ctx, query, code).Scan(&percentOff)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("Failed to look up discount code")
		return 0, false, fmt.Errorf("failed to look up discount code: %w", err)
	}

	return percentOff, true, nil
}
