package models

import (
	"github.com/golang-jwt/jwt/v4"
)

// Identity is the claim every credential strategy resolves to.
type Identity struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// SessionClaims are the custom claims of the session token.
type SessionClaims struct {
	IsAdmin bool   `json:"isAdmin"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims.
func (c *SessionClaims) Identity() Identity {
	return Identity{Email: c.Email, Name: c.Name, IsAdmin: c.IsAdmin}
}

// StateClaims carry the post-login callback through the OAuth round trip.
type StateClaims struct {
	CallbackURL string `json:"callbackUrl"`
	jwt.RegisteredClaims
}

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Username    string `json:"username" form:"username"`
	Password    string `json:"password" form:"password"`
	IDToken     string `json:"idToken" form:"idToken"`
	CallbackURL string `json:"callbackUrl" form:"callbackUrl" query:"callbackUrl"`
}
