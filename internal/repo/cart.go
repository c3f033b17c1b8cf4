package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).First(item).Error
		}
		return tx.Create(item).Error
	})
}

// DeleteOneFromCart decrements the line for productID and removes it when
// the quantity reaches zero. deleted reports the removal.
func (r *GormRepo) DeleteOneFromCart(ctx context.Context, productID, userID uuid.UUID) (bool, *models.CartItem, error) {
	var item models.CartItem
	deleted := false

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("product_id = ? AND user_id = ? AND quantity > 1", productID, userID).
			Update("quantity", gorm.Expr("quantity - 1"))
		if res.Error != nil {
			return res.Error
		}
		if err := tx.Where("product_id = ? AND user_id = ?", productID, userID).First(&item).Error; err != nil {
			return err
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return deleted, &item, nil
}

func (r *GormRepo) DeleteAllFromCart(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
