package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/pkg/events"
	"github.com/Skotchmaster/coin_shop/pkg/hash"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
	"github.com/Skotchmaster/coin_shop/pkg/metrics"
	"github.com/Skotchmaster/coin_shop/pkg/tokens"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	SignupBonus   int64
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Events        events.Publisher
	Metrics       *metrics.Metrics
}

func (s *AuthService) ttls() (time.Duration, time.Duration) {
	access, refresh := s.AccessTTL, s.RefreshTTL
	if access <= 0 {
		access = DefaultAccessTTL
	}
	if refresh <= 0 {
		refresh = DefaultRefreshTTL
	}
	return access, refresh
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password required", ErrValidation)
	}
	if n := len(username); n < 3 || n > 64 {
		return fmt.Errorf("%w: username must be 3-64 characters", ErrValidation)
	}
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx)

	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}

	bonus, err := s.Repo.CreateUser(ctx, user, s.SignupBonus)
	if err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: user already exist", ErrConflict)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUser, user.ID.String(), map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})
	if bonus != nil {
		s.Metrics.CoinsEarned(models.SourceSignup, bonus.Amount)
		publish(ctx, s.Events, events.TopicCoin, user.ID.String(), map[string]any{
			"type":    "coins_earned",
			"user_id": user.ID,
			"source":  models.SourceSignup,
			"amount":  bonus.Amount,
			"balance": bonus.BalanceAfter,
		})
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User, oldJTI string) (*tokens.Pair, error) {
	accessTTL, refreshTTL := s.ttls()
	now := time.Now()

	accessExp := now.Add(accessTTL)
	accessToken, err := tokens.NewAccessToken(user.ID.String(), user.Role, accessExp, s.JWTSecret)
	if err != nil {
		return nil, err
	}

	refreshExp := now.Add(refreshTTL)
	refreshToken, jti, err := tokens.NewRefreshToken(user.ID.String(), refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, err
	}

	if oldJTI == "" {
		err = s.Repo.AddRefresh(ctx, user.ID, refreshToken, jti, refreshExp)
	} else {
		err = s.Repo.RotateRefreshToken(ctx, oldJTI, user.ID, refreshToken, jti, refreshExp)
	}
	if err != nil {
		return nil, err
	}

	return &tokens.Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Role:         user.Role,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}

	user, err := s.Repo.UserExist(ctx, username, password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	pair, err := s.issue(ctx, user, "")
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	return pair, nil
}

// Refresh rotates refreshToken into a new pair. The role is read from the
// user row so promotions take effect on the next rotation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx)

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	stored, err := s.Repo.FindRefreshByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown token", ErrInvalidRefreshToken)
		}
		return nil, err
	}
	if stored.Revoked || stored.Token != tokens.Sha256Hex(refreshToken) || stored.ExpiresAt <= time.Now().Unix() {
		return nil, fmt.Errorf("%w: token expired or revoked", ErrInvalidRefreshToken)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID != stored.UserID {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidRefreshToken)
	}
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user gone", ErrInvalidRefreshToken)
		}
		return nil, err
	}

	pair, err := s.issue(ctx, user, claims.ID)
	if err != nil {
		if errors.Is(err, repo.ErrRefreshRevoked) {
			l.Warn("refresh_reuse", "user_id", userID, "jti", claims.ID)
			return nil, fmt.Errorf("%w: token already rotated", ErrInvalidRefreshToken)
		}
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefresh(ctx, refreshToken)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}
