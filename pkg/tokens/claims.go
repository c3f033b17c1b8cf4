package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Pair is an issued access/refresh token couple.
type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Role         string
}
