// Package testauth signs session tokens for tests. It must not be used by
// production code paths.
package testauth

import (
	"net/http"
	"time"

	"github.com/Togather-Foundation/gather/internal/auth"
	"github.com/Togather-Foundation/gather/internal/domain/users"
)

// Secret is the well-known signing secret used by test routers.
const Secret = "gather_test_jwt_secret_not_for_production"

// Issuer matches the default configured issuer.
const Issuer = "gather"

// Authenticator attaches bearer tokens for known users to requests.
type Authenticator struct {
	manager *auth.JWTManager
}

// New returns an authenticator signing with secret, or Secret when empty.
func New(secret string) *Authenticator {
	if secret == "" {
		secret = Secret
	}
	return &Authenticator{manager: auth.NewJWTManager(secret, time.Hour, Issuer)}
}

// Manager exposes the signing manager so a router can verify the tokens.
func (a *Authenticator) Manager() *auth.JWTManager {
	return a.manager
}

// Token signs a session token for user.
func (a *Authenticator) Token(user *users.User) (string, error) {
	token, _, err := a.manager.Generate(user.ID, user.Username)
	return token, err
}

// AddAuth sets the Authorization header for user. A nil user leaves the
// request anonymous.
func (a *Authenticator) AddAuth(req *http.Request, user *users.User) error {
	if req == nil || user == nil {
		return nil
	}
	token, err := a.Token(user)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
