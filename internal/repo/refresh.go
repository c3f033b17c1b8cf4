package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/pkg/tokens"
)

func refreshModel(userID uuid.UUID, token, jti string, exp time.Time) models.RefreshToken {
	return models.RefreshToken{
		Token:     tokens.Sha256Hex(token),
		UserID:    userID,
		JTI:       jti,
		ExpiresAt: exp.Unix(),
	}
}

func (r *GormRepo) AddRefresh(ctx context.Context, userID uuid.UUID, token, jti string, exp time.Time) error {
	m := refreshModel(userID, token, jti, exp)
	return r.DB.WithContext(ctx).Create(&m).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RotateRefreshToken revokes oldJTI and stores the new token atomically. Only
// one of two concurrent rotations of the same token can succeed.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, userID uuid.UUID, token, jti string, exp time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ? AND expires_at > ?", oldJTI, false, time.Now().Unix()).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshRevoked
		}

		m := refreshModel(userID, token, jti, exp)
		return tx.Create(&m).Error
	})
}

func (r *GormRepo) RevokeRefresh(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokens.Sha256Hex(token)).
		Update("revoked", true).Error
}
