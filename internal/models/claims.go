package models

import "github.com/golang-jwt/jwt/v5"

// Roles carried in access tokens. RoleNetwork is the service account of the
// mobile network gateway that reports incoming cash-in.
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleNetwork = "network"
)

// UserClaims are the claims carried by access tokens issued by the identity service.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID uint   `json:"user_id"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
}

func (c *UserClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
