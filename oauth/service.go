package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// AuthService defines the interface for different authentication services
// that can be managed by the OAuthServiceManager.
type AuthService interface {
	// HandleLogin initiates the login flow for the specific service.
	HandleLogin(w http.ResponseWriter, r *http.Request)
	// HandleCallback validates the provider callback, exchanges the code and
	// persists the resulting token.
	HandleCallback(w http.ResponseWriter, r *http.Request) (*oauth2.Token, error)
}

// ConnectionRecorder marks the signed-in user (if any) as connected to a
// service once its callback succeeds.
type ConnectionRecorder interface {
	MarkConnected(ctx context.Context, service string) error
}
