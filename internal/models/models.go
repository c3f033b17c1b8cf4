package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"    json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"    json:"username"`
	PasswordHash string    `gorm:"not null"                json:"-"`
	Role         string    `gorm:"not null;default:user"   json:"role"`
	CreatedAt    time.Time `                               json:"created_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"              json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"    json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"    json:"jti"`
	ExpiresAt int64     `gorm:"not null"                json:"expires_at"`
	Revoked   bool      `gorm:"default:false"           json:"revoked"`
}

// Tags is stored as a native text[] on PostgreSQL and as its array literal
// elsewhere.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (t *Tags) Scan(src any) error {
	var a pq.StringArray
	if err := a.Scan(src); err != nil {
		return err
	}
	*t = Tags(a)
	return nil
}

func (Tags) GormDataType() string { return "text" }

func (Tags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type Product struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"  json:"id"`
	Name            string         `gorm:"not null"              json:"name"`
	Description     string         `gorm:"not null"              json:"description"`
	Category        string         `gorm:"index"                 json:"category"`
	ImageURL        string         `                             json:"image_url"`
	Tags            Tags           `                             json:"tags"`
	PriceCents      int64          `gorm:"not null"              json:"price_cents"`
	DiscountPercent int            `gorm:"not null;default:0"    json:"discount_percent"`
	Stock           int            `gorm:"not null;default:0"    json:"stock"`
	Active          bool           `gorm:"not null"              json:"active"`
	CreatedAt       time.Time      `                             json:"created_at"`
	UpdatedAt       time.Time      `                             json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                     json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_user_product;not null" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_user_product;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity>0"            json:"quantity"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID                uuid.UUID   `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID            uuid.UUID   `gorm:"type:uuid;index;not null" json:"user_id"`
	Status            string      `gorm:"index;not null"           json:"status"`
	SubtotalCents     int64       `gorm:"not null"                 json:"subtotal_cents"`
	CoinsUsed         int64       `gorm:"not null;default:0"       json:"coins_used"`
	CoinDiscountCents int64       `gorm:"not null;default:0"       json:"coin_discount_cents"`
	TotalCents        int64       `gorm:"not null"                 json:"total_cents"`
	ShippingAddress   string      `                                json:"shipping_address"`
	Items             []OrderItem `gorm:"foreignKey:OrderID"       json:"items"`
	CreatedAt         time.Time   `                                json:"created_at"`
	UpdatedAt         time.Time   `                                json:"updated_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID             uint      `gorm:"primaryKey"                    json:"id"`
	OrderID        uuid.UUID `gorm:"type:uuid;index;not null"      json:"order_id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null"            json:"product_id"`
	Name           string    `gorm:"not null"                      json:"name"`
	Quantity       int       `gorm:"not null;check:quantity>0"     json:"quantity"`
	UnitPriceCents int64     `gorm:"not null"                      json:"unit_price_cents"`
	LineTotalCents int64     `gorm:"not null"                      json:"line_total_cents"`
}

const (
	TxEarn   = "earn"
	TxSpend  = "spend"
	TxRefund = "refund"
	TxBonus  = "bonus"
	TxAdjust = "adjust"

	SourceAdView    = "ad_view"
	SourceSpinWheel = "spin_wheel"
	SourceSignup    = "signup"
	SourceOrder     = "order"
	SourceAdmin     = "admin"
)

// UserReward is the running coin balance of a user; the ledger in
// user_transactions is its history.
type UserReward struct {
	UserID      uuid.UUID  `gorm:"type:uuid;primaryKey"          json:"user_id"`
	Balance     int64      `gorm:"not null;default:0;check:balance>=0" json:"balance"`
	TotalEarned int64      `gorm:"not null;default:0"            json:"total_earned"`
	TotalSpent  int64      `gorm:"not null;default:0"            json:"total_spent"`
	LastSpinAt  *time.Time `                                     json:"last_spin_at,omitempty"`
	UpdatedAt   time.Time  `                                     json:"updated_at"`
}

func (UserReward) TableName() string { return "user_rewards" }

type CoinTransaction struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Type         string    `gorm:"index;not null"           json:"type"`
	Source       string    `gorm:"not null"                 json:"source"`
	Amount       int64     `gorm:"not null"                 json:"amount"`
	BalanceAfter int64     `gorm:"not null"                 json:"balance_after"`
	Reference    string    `gorm:"index"                    json:"reference,omitempty"`
	Description  string    `                                json:"description,omitempty"`
	CreatedAt    time.Time `gorm:"index"                    json:"created_at"`
}

func (CoinTransaction) TableName() string { return "user_transactions" }

func (t *CoinTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

const (
	CampaignDraft  = "draft"
	CampaignActive = "active"
	CampaignPaused = "paused"
	CampaignEnded  = "ended"
)

type Campaign struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"  json:"id"`
	Name         string     `gorm:"not null"              json:"name"`
	Advertiser   string     `gorm:"index"                 json:"advertiser"`
	Description  string     `                             json:"description"`
	MediaURL     string     `                             json:"media_url"`
	TargetURL    string     `                             json:"target_url"`
	RewardCoins  int64      `gorm:"not null"              json:"reward_coins"`
	BudgetCoins  int64      `gorm:"not null;default:0"    json:"budget_coins"`
	CoinsAwarded int64      `gorm:"not null;default:0"    json:"coins_awarded"`
	Status       string     `gorm:"index;not null"        json:"status"`
	StartsAt     *time.Time `                             json:"starts_at,omitempty"`
	EndsAt       *time.Time `                             json:"ends_at,omitempty"`
	CreatedAt    time.Time  `                             json:"created_at"`
	UpdatedAt    time.Time  `                             json:"updated_at"`
}

func (c *Campaign) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BudgetExhausted reports whether another reward would exceed the budget.
// A zero budget is unlimited.
func (c *Campaign) BudgetExhausted() bool {
	return c.BudgetCoins > 0 && c.CoinsAwarded+c.RewardCoins > c.BudgetCoins
}

// Running reports whether the campaign accepts traffic at now.
func (c *Campaign) Running(now time.Time) bool {
	if c.Status != CampaignActive {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && !now.Before(*c.EndsAt) {
		return false
	}
	return true
}

// CampaignMetric holds one day of counters for a campaign.
type CampaignMetric struct {
	ID          uint      `gorm:"primaryKey"                                   json:"-"`
	CampaignID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_metric_day;not null" json:"campaign_id"`
	Day         string    `gorm:"size:10;uniqueIndex:idx_metric_day;not null"  json:"day"`
	Views       int64     `gorm:"not null;default:0"                           json:"views"`
	Clicks      int64     `gorm:"not null;default:0"                           json:"clicks"`
	Conversions int64     `gorm:"not null;default:0"                           json:"conversions"`
}

func (CampaignMetric) TableName() string { return "metrics" }

func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&UserReward{},
		&CoinTransaction{},
		&Campaign{},
		&CampaignMetric{},
	}
}
