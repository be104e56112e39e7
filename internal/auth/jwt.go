package auth

import (
	"errors"
	"time"

	"dues-backend/internal/config"
	"dues-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in session claims. Every core call receives the caller's
// identity through these claims instead of ambient globals.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type Claims struct {
	CustomerID int    `json:"customer_id,omitempty"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	cfg *config.Config
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{cfg: cfg}
}

// GenerateAdminToken creates a session token for the admin account
func (j *JWTManager) GenerateAdminToken(username string) (string, error) {
	return j.generate(&Claims{
		Username: username,
		Role:     RoleAdmin,
	})
}

// GenerateCustomerToken creates a session token for a customer
func (j *JWTManager) GenerateCustomerToken(customerID int, username string) (string, error) {
	return j.generate(&Claims{
		CustomerID: customerID,
		Username:   username,
		Role:       RoleCustomer,
	})
}

func (j *JWTManager) generate(claims *Claims) (string, error) {
	now := timeutil.Now()
	expirationTime := now.Add(time.Duration(j.cfg.JWT.ExpirationHours) * time.Hour)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    j.cfg.JWT.Issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.JWT.Secret))
}

// ValidateToken verifies a JWT token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(j.cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
