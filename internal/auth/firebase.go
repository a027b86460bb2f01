package auth

import (
	"context"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/anonto42/kdiary/backend/internal/models"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

// TokenVerifier is the part of the firebase auth client the strategy uses
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseStrategy accepts Firebase ID tokens
type FirebaseStrategy struct {
	verifier   TokenVerifier
	adminEmail string
}

func NewFirebaseStrategy(verifier TokenVerifier, adminEmail string) *FirebaseStrategy {
	return &FirebaseStrategy{verifier: verifier, adminEmail: adminEmail}
}

func (s *FirebaseStrategy) Name() string { return "firebase" }

func (s *FirebaseStrategy) AuthURL(string) string { return "" }

func (s *FirebaseStrategy) Authenticate(ctx context.Context, in LoginInput) (models.Identity, error) {
	if in.IDToken == "" {
		return models.Identity{}, apperrors.Unauthorized(nil, "missing id token")
	}

	token, err := s.verifier.VerifyIDToken(ctx, in.IDToken)
	if err != nil {
		return models.Identity{}, apperrors.Unauthorized(err, "invalid id token")
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if email == "" {
		return models.Identity{}, apperrors.Unauthorized(nil, "id token has no email")
	}
	return models.Identity{Email: email, Name: name, IsAdmin: isAdminEmail(email, s.adminEmail)}, nil
}
