package auth

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/efren319/GovFunds/internal/apperrors"
)

// InitializeFirebase initializes the Firebase Admin SDK and returns an Auth client.
func InitializeFirebase(ctx context.Context, credentialsPath string) (*fbauth.Client, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	return authClient, nil
}

// TokenVerifier checks an ID token; *fbauth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseLogin accepts Firebase ID tokens whose verified email is allow-listed.
type FirebaseLogin struct {
	verifier TokenVerifier
	allowed  map[string]bool
}

func NewFirebaseLogin(verifier TokenVerifier, adminEmails []string) *FirebaseLogin {
	allowed := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			allowed[e] = true
		}
	}
	return &FirebaseLogin{verifier: verifier, allowed: allowed}
}

// Verify returns the admin email carried by idToken, or ErrUnauthorized.
func (f *FirebaseLogin) Verify(ctx context.Context, idToken string) (string, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return "", apperrors.Required("id_token")
	}

	tok, err := f.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("verify id token: %w", apperrors.ErrUnauthorized)
	}

	email, _ := tok.Claims["email"].(string)
	verified, _ := tok.Claims["email_verified"].(bool)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !verified || !f.allowed[email] {
		return "", fmt.Errorf("email %q not allowed: %w", email, apperrors.ErrUnauthorized)
	}
	return email, nil
}
