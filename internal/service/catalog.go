package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coin_shop/internal/domain"
	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/events"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
)

// Indexer is the full text side of the catalog.
type Indexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type CatalogService struct {
	Repo           *repo.GormRepo
	Index          Indexer
	Events         events.Publisher
	CoinValueCents int64
}

func (s *CatalogService) View(p *models.Product) transport.ProductView {
	final := domain.FinalPrice(p.PriceCents, p.DiscountPercent)
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return transport.ProductView{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		ImageURL:        p.ImageURL,
		Tags:            tags,
		PriceCents:      p.PriceCents,
		DiscountPercent: p.DiscountPercent,
		FinalPriceCents: final,
		MaxCoins:        domain.MaxCoinsFor(final, s.CoinValueCents),
		Stock:           p.Stock,
		Active:          p.Active,
	}
}

func (s *CatalogService) Views(items []models.Product) []transport.ProductView {
	out := make([]transport.ProductView, 0, len(items))
	for i := range items {
		out = append(out, s.View(&items[i]))
	}
	return out
}

// GetProduct hides inactive products unless withInactive is set.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID, withInactive bool) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !p.Active && !withInactive {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	return p, nil
}

func (s *CatalogService) GetProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, f, offset, limit)
}

func validateProduct(name string, price int64, discount, stock int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if discount < 0 || discount > 100 {
		return fmt.Errorf("%w: discount must be within 0..100", ErrValidation)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if err := validateProduct(req.Name, req.PriceCents, req.DiscountPercent, req.Stock); err != nil {
		return nil, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	prod, err := s.Repo.CreateProduct(ctx, &models.Product{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Category:        req.Category,
		ImageURL:        req.ImageURL,
		Tags:            models.Tags(req.Tags),
		PriceCents:      req.PriceCents,
		DiscountPercent: req.DiscountPercent,
		Stock:           req.Stock,
		Active:          active,
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, "product_created", prod)
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if req.PriceCents != nil && *req.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.DiscountPercent != nil && (*req.DiscountPercent < 0 || *req.DiscountPercent > 100) {
		return nil, fmt.Errorf("%w: discount must be within 0..100", ErrValidation)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	prod, err := s.Repo.PatchProduct(ctx, req, id)
	if err != nil {
		return nil, notFound(err, "product")
	}

	s.changed(ctx, "product_updated", prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}

	publish(ctx, s.Events, events.TopicProduct, id.String(), map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "product_id", id, "error", err)
		}
	}
	return nil
}

func (s *CatalogService) changed(ctx context.Context, eventType string, p *models.Product) {
	publish(ctx, s.Events, events.TopicProduct, p.ID.String(), map[string]any{
		"type":        eventType,
		"product_id":  p.ID,
		"name":        p.Name,
		"price_cents": p.PriceCents,
		"stock":       p.Stock,
		"active":      p.Active,
	})
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
		}
	}
}

// SearchProducts asks the search index first and falls back to a database
// LIKE query when the index is absent or failing. source names the backend
// that answered.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (total int64, items []models.Product, source string, err error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, "", fmt.Errorf("%w: query required", ErrValidation)
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			byID, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, "", err
			}
			items := make([]models.Product, 0, len(ids))
			for _, id := range ids {
				if p, ok := byID[id]; ok && p.Active {
					items = append(items, p)
				}
			}
			return total, items, "search", nil
		}
		logging.FromContext(ctx).Warn("search_fallback", "reason", "index unavailable", "error", err)
	}

	total, items, err = s.Repo.SearchProductsLike(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, "", err
	}
	return total, items, "database", nil
}

// Reindex pushes every product to the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, errors.New("search index is not configured")
	}
	items, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := s.Index.IndexProduct(ctx, &items[i]); err != nil {
			return i, fmt.Errorf("index %s: %w", items[i].ID, err)
		}
	}
	return len(items), nil
}
