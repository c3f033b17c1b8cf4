package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coin_shop/internal/domain"
	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/events"
)

type CartService struct {
	Repo           *repo.GormRepo
	Events         events.Publisher
	CoinValueCents int64
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.Repo.GetCart(ctx, userID)
}

// View prices the cart at current final prices. Lines whose product is gone
// or inactive stay listed as unavailable and are left out of the subtotal.
func (s *CartService) View(ctx context.Context, userID uuid.UUID) (*transport.CartView, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &transport.CartView{Items: make([]transport.CartLine, 0, len(items))}
	for _, it := range items {
		line := transport.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, ok := products[it.ProductID]; ok {
			line.Name = p.Name
			line.UnitPriceCents = domain.FinalPrice(p.PriceCents, p.DiscountPercent)
			line.LineTotalCents = line.UnitPriceCents * int64(it.Quantity)
			line.Available = p.Active && p.Stock >= it.Quantity
		}
		if line.Available {
			view.SubtotalCents += line.LineTotalCents
		}
		view.Items = append(view.Items, line)
	}
	view.MaxCoins = domain.MaxCoinsFor(view.SubtotalCents, s.CoinValueCents)
	return view, nil
}

func (s *CartService) AddToCart(ctx context.Context, item *models.CartItem) error {
	if item.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	p, err := s.Repo.GetProduct(ctx, item.ProductID)
	if err != nil {
		return notFound(err, "product")
	}
	if !p.Active {
		return fmt.Errorf("%w: product", ErrNotFound)
	}

	if err := s.Repo.AddToCart(ctx, item); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicCart, item.UserID.String(), map[string]any{
		"type":       "cart_item_added",
		"user_id":    item.UserID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})
	return nil
}

func (s *CartService) DeleteOneFromCart(ctx context.Context, productID, userID uuid.UUID) (bool, *models.CartItem, error) {
	if productID == uuid.Nil {
		return false, nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}

	deleted, item, err := s.Repo.DeleteOneFromCart(ctx, productID, userID)
	if err != nil {
		return false, nil, notFound(err, "cart item")
	}
	publish(ctx, s.Events, events.TopicCart, userID.String(), map[string]any{
		"type":       "cart_item_removed",
		"user_id":    userID,
		"product_id": productID,
		"deleted":    deleted,
	})
	return deleted, item, nil
}

func (s *CartService) DeleteAllFromCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.Repo.DeleteAllFromCart(ctx, userID); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicCart, userID.String(), map[string]any{
		"type":    "cart_cleared",
		"user_id": userID,
	})
	return nil
}
