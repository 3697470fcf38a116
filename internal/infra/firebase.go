// README: Firebase Admin SDK initialisation and staff token verifier.
package infra

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrAuthDisabled is returned by the verifier used when no Firebase project is configured.
var ErrAuthDisabled = errors.New("staff authentication is not configured")

// StaffToken holds the verified identity of a back-office caller.
type StaffToken struct {
	UID    string
	Email  string
	Claims map[string]interface{}
}

// Role returns the custom "role" claim, or "" when absent.
func (t *StaffToken) Role() string {
	if t == nil {
		return ""
	}
	role, _ := t.Claims["role"].(string)
	return role
}

// TokenVerifier verifies a raw Firebase ID token string.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*StaffToken, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier creates a TokenVerifier using the Firebase Admin SDK.
// credentialsFile may be empty to use application-default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	if projectID == "" {
		return disabledVerifier{}, nil
	}
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("infra: firebase.NewApp: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("infra: firebase app.Auth: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*StaffToken, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email, _ := token.Claims["email"].(string)
	return &StaffToken{UID: token.UID, Email: email, Claims: token.Claims}, nil
}

type disabledVerifier struct{}

func (disabledVerifier) VerifyIDToken(context.Context, string) (*StaffToken, error) {
	return nil, ErrAuthDisabled
}
