package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/anonto42/kdiary/backend/pkg/logger"
)

// NewTokenVerifier builds the Firebase auth client that verifies ID tokens
// for the firebase sign-in strategy. The credentials file is checked by
// config.Validate.
func NewTokenVerifier(ctx context.Context, credentialsPath string, log logger.Logger, opts ...option.ClientOption) (*auth.Client, error) {
	opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsPath)}, opts...)

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.WithComponent("firebase").Info("Firebase token verifier ready")
	return client, nil
}
