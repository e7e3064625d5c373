package catalog

import (
	"context"
	"fmt"

	"discount-service/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// codeNamespace derives stable ids for definitions that only carry a code.
var codeNamespace = uuid.MustParse("6f1c3b52-8e0d-4a57-9d3e-2b7a41c9e0f4")

// Importer loads catalogue files and upserts their definitions.
type Importer struct {
	loader Loader
	store  Store
	logger zerolog.Logger
}

// NewImporter creates a new catalogue importer.
func NewImporter(loader Loader, store Store, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Import loads all paths concurrently and upserts the combined definitions.
// Any unreadable file or invalid definition aborts the import before
// anything is written. It returns the number of definitions upserted.
func (i *Importer) Import(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	i.logger.Info().Int("file_count", len(paths)).Msg("importing discount catalogue")

	loaded := make([][]Definition, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for idx, path := range paths {
		g.Go(func() error {
			definitions, err := i.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load catalogue %s: %w", path, err)
			}
			loaded[idx] = definitions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		i.logger.Error().Err(err).Msg("catalogue import aborted")
		return 0, err
	}

	discounts, err := toDiscounts(paths, loaded)
	if err != nil {
		i.logger.Error().Err(err).Msg("catalogue import aborted")
		return 0, err
	}

	if err := i.store.UpsertMany(ctx, discounts); err != nil {
		return 0, fmt.Errorf("failed to store catalogue: %w", err)
	}

	i.logger.Info().Int("discounts", len(discounts)).Msg("discount catalogue imported")

	return len(discounts), nil
}

// toDiscounts validates definitions in file order. An id may appear only once
// across all files.
func toDiscounts(paths []string, loaded [][]Definition) ([]model.Discount, error) {
	var discounts []model.Discount
	seen := make(map[string]string)

	for idx, definitions := range loaded {
		for n, def := range definitions {
			discount, err := toDiscount(def)
			if err != nil {
				return nil, fmt.Errorf("%s entry %d: %w", paths[idx], n+1, err)
			}
			if first, dup := seen[discount.ID]; dup {
				return nil, fmt.Errorf("%s entry %d: %w: id %q already defined in %s",
					paths[idx], n+1, ErrInvalidDefinition, discount.ID, first)
			}
			seen[discount.ID] = paths[idx]
			discounts = append(discounts, discount)
		}
	}

	return discounts, nil
}

func toDiscount(def Definition) (model.Discount, error) {
	if def.ID == "" && def.Code == "" {
		return model.Discount{}, fmt.Errorf("%w: id or code is required", ErrInvalidDefinition)
	}
	if def.MaxTotalUses != nil && *def.MaxTotalUses < 0 {
		return model.Discount{}, fmt.Errorf("%w: maxTotalUses must not be negative", ErrInvalidDefinition)
	}
	if def.MaxUsesPerUser != nil && *def.MaxUsesPerUser < 0 {
		return model.Discount{}, fmt.Errorf("%w: maxUsesPerUser must not be negative", ErrInvalidDefinition)
	}

	id := def.ID
	if id == "" {
		id = uuid.NewSHA1(codeNamespace, []byte(def.Code)).String()
	}

	return model.Discount{
		ID:             id,
		Code:           def.Code,
		Name:           def.Name,
		MaxTotalUses:   def.MaxTotalUses,
		MaxUsesPerUser: def.MaxUsesPerUser,
	}, nil
}
