package auth

import (
	"context"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/anonto42/kdiary/backend/internal/models"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

const defaultAdminEmail = "admin@kdiary.com"

// CredentialsStrategy checks a static username and password
type CredentialsStrategy struct {
	username     string
	password     string
	passwordHash []byte
	email        string
}

// NewCredentialsStrategy prefers passwordHash (bcrypt) over a plain password
func NewCredentialsStrategy(username, password, passwordHash, adminEmail string) *CredentialsStrategy {
	email := adminEmail
	if email == "" {
		email = defaultAdminEmail
	}
	return &CredentialsStrategy{
		username:     username,
		password:     password,
		passwordHash: []byte(passwordHash),
		email:        email,
	}
}

func (s *CredentialsStrategy) Name() string { return "credentials" }

func (s *CredentialsStrategy) AuthURL(string) string { return "" }

func (s *CredentialsStrategy) Authenticate(ctx context.Context, in LoginInput) (models.Identity, error) {
	if s.username == "" || in.Username == "" || in.Password == "" {
		return models.Identity{}, apperrors.Unauthorized(nil, "invalid credentials")
	}

	userOK := subtle.ConstantTimeCompare([]byte(in.Username), []byte(s.username)) == 1

	var passOK bool
	if len(s.passwordHash) > 0 {
		passOK = bcrypt.CompareHashAndPassword(s.passwordHash, []byte(in.Password)) == nil
	} else {
		passOK = s.password != "" && subtle.ConstantTimeCompare([]byte(in.Password), []byte(s.password)) == 1
	}

	if !userOK || !passOK {
		return models.Identity{}, apperrors.Unauthorized(nil, "invalid credentials")
	}
	return models.Identity{Email: s.email, Name: "Admin", IsAdmin: true}, nil
}
