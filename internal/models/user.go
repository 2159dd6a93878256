package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the portal roles used for route gating.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "STUDENT"
)

// JWTClaims is the JWT payload for access tokens issued by the auth
// collaborator. The portal only validates and reads them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Course   string   `json:"course,omitempty"`
	Semester int      `json:"semester,omitempty"`
	jwt.RegisteredClaims
}
