package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coin_shop/internal/domain"
	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/events"
	"github.com/Skotchmaster/coin_shop/pkg/metrics"
)

type OrderService struct {
	Repo           *repo.GormRepo
	Events         events.Publisher
	Metrics        *metrics.Metrics
	CoinValueCents int64
}

func (s *OrderService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest, userID uuid.UUID) (*models.Order, error) {
	return s.place(ctx, userID, req.Items, req.CoinsToUse, req.ShippingAddress, false)
}

// Checkout turns the user's cart into an order and empties the cart.
func (s *OrderService) Checkout(ctx context.Context, req transport.CheckoutRequest, userID uuid.UUID) (*models.Order, error) {
	cart, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	items := make([]transport.CreateOrderItem, 0, len(cart))
	for _, it := range cart {
		items = append(items, transport.CreateOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return s.place(ctx, userID, items, req.CoinsToUse, req.ShippingAddress, true)
}

func mergeItems(in []transport.CreateOrderItem) ([]transport.CreateOrderItem, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	out := make([]transport.CreateOrderItem, 0, len(in))
	pos := make(map[uuid.UUID]int, len(in))
	for _, it := range in {
		if it.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if i, ok := pos[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		pos[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}

func (s *OrderService) place(ctx context.Context, userID uuid.UUID, reqItems []transport.CreateOrderItem, coins int64, address string, fromCart bool) (*models.Order, error) {
	lines, err := mergeItems(reqItems)
	if err != nil {
		return nil, err
	}
	if coins < 0 {
		return nil, fmt.Errorf("%w: coins_to_use must be >= 0", ErrValidation)
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, it := range lines {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var subtotal int64
	items := make([]models.OrderItem, 0, len(lines))
	for _, it := range lines {
		p, ok := products[it.ProductID]
		if !ok || !p.Active {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, it.ProductID)
		}
		unit := domain.FinalPrice(p.PriceCents, p.DiscountPercent)
		line := unit * int64(it.Quantity)
		subtotal += line
		items = append(items, models.OrderItem{
			ProductID:      p.ID,
			Name:           p.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: unit,
			LineTotalCents: line,
		})
	}

	discount, total, ok := domain.OrderTotals(subtotal, coins, s.CoinValueCents)
	if !ok {
		return nil, fmt.Errorf("%w: coins exceed order subtotal", ErrValidation)
	}

	status := models.OrderStatusPending
	if total == 0 {
		status = models.OrderStatusPaid
	}

	order, err := s.Repo.CreateOrder(ctx, &models.Order{
		UserID:            userID,
		Status:            status,
		SubtotalCents:     subtotal,
		CoinsUsed:         coins,
		CoinDiscountCents: discount,
		TotalCents:        total,
		ShippingAddress:   address,
		Items:             items,
	}, fromCart)
	if err != nil {
		return nil, err
	}

	s.Metrics.OrderCreated()
	publish(ctx, s.Events, events.TopicOrder, order.ID.String(), map[string]any{
		"type":        "order_created",
		"order_id":    order.ID,
		"user_id":     userID,
		"status":      order.Status,
		"total_cents": order.TotalCents,
		"coins_used":  order.CoinsUsed,
		"items":       len(order.Items),
	})
	if coins > 0 {
		s.Metrics.CoinsSpent(coins)
		publish(ctx, s.Events, events.TopicCoin, userID.String(), map[string]any{
			"type":      "coins_spent",
			"user_id":   userID,
			"source":    models.SourceOrder,
			"amount":    coins,
			"reference": order.ID,
		})
	}
	return order, nil
}

// GetOrder returns the order to its owner or an admin. Other users get
// ErrNotFound.
func (s *OrderService) GetOrder(ctx context.Context, userID, id uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, userID, offset, limit)
}

func (s *OrderService) ListAllOrders(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	if status != "" && !domain.ValidOrderStatus(status) {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.Repo.ListAllOrders(ctx, status, offset, limit)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, to string) (*models.Order, error) {
	if !domain.ValidOrderStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return s.transition(ctx, order, to)
}

func (s *OrderService) CancelOrder(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, userID, id, false)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, models.OrderStatusCancelled)
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, to string) (*models.Order, error) {
	from := order.Status
	if !domain.CanTransitionOrder(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	var (
		updated *models.Order
		err     error
	)
	if to == models.OrderStatusCancelled {
		updated, err = s.Repo.CancelOrder(ctx, order.ID, from)
	} else {
		updated, err = s.Repo.UpdateOrderStatus(ctx, order.ID, from, to)
	}
	if err != nil {
		if errors.Is(err, repo.ErrStaleState) {
			return nil, fmt.Errorf("%w: order changed concurrently", ErrConflict)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrder, order.ID.String(), map[string]any{
		"type":     "order_status_changed",
		"order_id": order.ID,
		"user_id":  order.UserID,
		"from":     from,
		"to":       to,
	})
	if to == models.OrderStatusCancelled && order.CoinsUsed > 0 {
		publish(ctx, s.Events, events.TopicCoin, order.UserID.String(), map[string]any{
			"type":      "coins_refunded",
			"user_id":   order.UserID,
			"source":    models.SourceOrder,
			"amount":    order.CoinsUsed,
			"reference": order.ID,
		})
	}
	return updated, nil
}
