// Package google verifies Google-issued ID tokens and normalizes the
// profile they carry. The upstream service is a black box that can
// fail; callers translate failures to auth errors.
package google

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// Profile is the normalized identity extracted from a verified token.
type Profile struct {
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// Verifier validates a third-party ID token. Injected into the auth
// handler so tests can substitute a fake.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Profile, error)
}

type IDTokenVerifier struct {
	clientID string
}

func NewIDTokenVerifier(clientID string) *IDTokenVerifier {
	return &IDTokenVerifier{clientID: clientID}
}

func (v *IDTokenVerifier) Verify(ctx context.Context, token string) (*Profile, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validating google id token: %w", err)
	}

	return &Profile{
		Email:         claimString(payload.Claims, "email"),
		Name:          claimString(payload.Claims, "name"),
		Picture:       claimString(payload.Claims, "picture"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
	}, nil
}

func claimString(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func claimBool(claims map[string]any, key string) bool {
	if v, ok := claims[key].(bool); ok {
		return v
	}
	return false
}
