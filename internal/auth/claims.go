package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Role is carried on access tokens only; refresh tokens are re-checked
// against the operator account before a new pair is issued.
type Claims struct {
	jwt.RegisteredClaims

	OperatorID string    `json:"operator_id"`
	Username   string    `json:"username"`
	Role       string    `json:"role,omitempty"`
	TokenType  TokenType `json:"token_type"`
}
