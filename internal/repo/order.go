package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/models"
)

// CreateOrder reserves stock, spends order.CoinsUsed and stores the order
// with its items in one transaction. With clearCart the user's cart is
// emptied in the same transaction.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order, clearCart bool) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range order.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND active = ? AND stock >= ?", it.ProductID, true, it.Quantity).
				Update("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: product %s", ErrOutOfStock, it.ProductID)
			}
		}

		if order.CoinsUsed > 0 {
			if _, err := post(tx, ledgerEntry{
				UserID:      order.UserID,
				Type:        models.TxSpend,
				Source:      models.SourceOrder,
				Amount:      -order.CoinsUsed,
				Reference:   order.ID.String(),
				Description: "order payment",
			}); err != nil {
				return err
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		if clearCart {
			return tx.Where("user_id = ?", order.UserID).Delete(&models.CartItem{}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func listOrders(q *gorm.DB, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := q.Preload("Items").Order("created_at DESC").Order("id ASC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return listOrders(q, offset, limit)
}

func (r *GormRepo) ListAllOrders(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return listOrders(q, offset, limit)
}

func setOrderStatus(tx *gorm.DB, id uuid.UUID, from, to string) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

// UpdateOrderStatus moves the order from one status to another. It fails
// with ErrStaleState when the order is no longer in from.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Order, error) {
	if err := setOrderStatus(r.DB.WithContext(ctx), id, from, to); err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, id)
}

// CancelOrder marks the order cancelled, puts its items back in stock and
// refunds the coins spent on it.
func (r *GormRepo) CancelOrder(ctx context.Context, id uuid.UUID, from string) (*models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setOrderStatus(tx, id, from, models.OrderStatusCancelled); err != nil {
			return err
		}

		var order models.Order
		if err := tx.Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}

		for _, it := range order.Items {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", it.ProductID).
				Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
				return err
			}
		}

		if order.CoinsUsed > 0 {
			if _, err := post(tx, ledgerEntry{
				UserID:      order.UserID,
				Type:        models.TxRefund,
				Source:      models.SourceOrder,
				Amount:      order.CoinsUsed,
				Reference:   order.ID.String(),
				Description: "order cancelled",
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, id)
}
