package models

import "github.com/golang-jwt/jwt/v5"

// UserRole identifies the caller's role for route authorization.
type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleDirector UserRole = "DIRECTOR"
	UserRoleStaff    UserRole = "STAFF"
)

// JWTClaims represents the JWT payload for access tokens. Tokens are issued by
// the registration platform; this API only verifies them.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}
