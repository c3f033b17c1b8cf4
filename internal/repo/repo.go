package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/models"
)

var (
	ErrUserAlreadyExist   = errors.New("user already exist")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRefreshRevoked     = errors.New("refresh token expired or revoked")
	ErrInsufficientCoins  = errors.New("insufficient coins")
	ErrOutOfStock         = errors.New("out of stock")
	ErrSpinCooldown       = errors.New("spin on cooldown")
	ErrBudgetExhausted    = errors.New("campaign budget exhausted")
	ErrCampaignInactive   = errors.New("campaign is not running")
	ErrStaleState         = errors.New("state changed concurrently")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
