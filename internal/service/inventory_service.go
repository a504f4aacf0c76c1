package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/qloteam/Qloset-sub000/internal/models"
	"github.com/qloteam/Qloset-sub000/internal/store"
	"github.com/qloteam/Qloset-sub000/internal/util"

	"go.uber.org/zap"
)

// CatalogStore is the persistence surface for catalog and admin
// stock operations.
type CatalogStore interface {
	WithTx(ctx context.Context, fn func(tx store.OrderTx) error) error
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetVariantsByProduct(ctx context.Context, productID int64) ([]models.Variant, error)
}

// StockCache holds a read-side snapshot of variant stock. Cache
// writes are best-effort; the database stays authoritative.
type StockCache interface {
	SetStock(ctx context.Context, variantID int64, qty int) error
}

// InventoryService covers catalog reads and the admin total-stock
// adjustment.
type InventoryService struct {
	store  CatalogStore
	cache  StockCache
	logger *zap.Logger
}

func NewInventoryService(st CatalogStore, cache StockCache) *InventoryService {
	return &InventoryService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// GetProducts lists active products
func (s *InventoryService) GetProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.GetProducts(ctx)
}

// GetProduct retrieves a product with its variants
func (s *InventoryService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// SetProductTotalStock sets a product's total stock across all its
// variants to exactly target. A surplus is added to the first variant
// in id order; a deficit is drained left to right, clamping each
// variant at zero. A product with no variants gets a default variant
// carrying the full target. Independent of the order flow; does not
// touch reservations.
func (s *InventoryService) SetProductTotalStock(ctx context.Context, productID int64, target int) ([]models.Variant, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.SetProductTotalStock")
	defer span.End()

	if target < 0 {
		return nil, ErrInvalidStockTarget
	}

	var out []models.Variant
	err := s.store.WithTx(ctx, func(tx store.OrderTx) error {
		product, err := tx.ProductByID(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		variants, err := tx.VariantsByProduct(ctx, productID)
		if err != nil {
			return err
		}

		if len(variants) == 0 {
			v := &models.Variant{
				ProductID: product.ID,
				Size:      "STD",
				SKU:       fmt.Sprintf("%s-STD", product.Slug),
				StockQty:  target,
			}
			if err := tx.CreateVariant(ctx, v); err != nil {
				return err
			}
			out = []models.Variant{*v}
			return nil
		}

		current := 0
		for _, v := range variants {
			current += v.StockQty
		}
		delta := target - current

		switch {
		case delta > 0:
			variants[0].StockQty += delta
			if err := tx.SetVariantStock(ctx, variants[0].ID, variants[0].StockQty); err != nil {
				return err
			}
		case delta < 0:
			deficit := -delta
			for i := range variants {
				if deficit == 0 {
					break
				}
				take := variants[i].StockQty
				if take > deficit {
					take = deficit
				}
				if take == 0 {
					continue
				}
				variants[i].StockQty -= take
				deficit -= take
				if err := tx.SetVariantStock(ctx, variants[i].ID, variants[i].StockQty); err != nil {
					return err
				}
			}
		}

		out = variants
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product stock adjusted",
		zap.Int64("product_id", productID),
		zap.Int("target", target))
	s.cacheStock(ctx, out)
	return out, nil
}

// SyncStockToCache pushes every variant's stock into the cache,
// normally once at startup.
func (s *InventoryService) SyncStockToCache(ctx context.Context) error {
	products, err := s.store.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	count := 0
	for _, p := range products {
		variants, err := s.store.GetVariantsByProduct(ctx, p.ID)
		if err != nil {
			s.logger.Error("Failed to load variants for cache sync",
				zap.Int64("product_id", p.ID),
				zap.Error(err))
			continue
		}
		s.cacheStock(ctx, variants)
		count += len(variants)
	}

	s.logger.Info("Stock cache synced", zap.Int("variants", count))
	return nil
}

// RefreshVariants re-reads the given variants and updates the cache.
// Used by the cache worker after order lifecycle events.
func (s *InventoryService) RefreshVariants(ctx context.Context, variantIDs []int64) {
	for _, id := range variantIDs {
		variants, err := s.variantsByID(ctx, id)
		if err != nil {
			s.logger.Error("Failed to refresh variant stock",
				zap.Int64("variant_id", id),
				zap.Error(err))
			continue
		}
		s.cacheStock(ctx, variants)
	}
}

func (s *InventoryService) variantsByID(ctx context.Context, id int64) ([]models.Variant, error) {
	var out []models.Variant
	err := s.store.WithTx(ctx, func(tx store.OrderTx) error {
		variants, err := tx.VariantsByIDs(ctx, []int64{id})
		if err != nil {
			return err
		}
		out = variants
		return nil
	})
	return out, err
}

func (s *InventoryService) cacheStock(ctx context.Context, variants []models.Variant) {
	if s.cache == nil {
		return
	}
	for _, v := range variants {
		if err := s.cache.SetStock(ctx, v.ID, v.StockQty); err != nil {
			s.logger.Warn("Failed to cache variant stock",
				zap.Int64("variant_id", v.ID),
				zap.Error(err))
		}
	}
}
