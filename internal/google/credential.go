package google

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

type Identity struct {
	Email       string
	DisplayName string
	Token       *oauth2.Token
}

// Authorizer supplies an HTTP client that attaches the current user's
// bearer token to outbound requests.
type Authorizer interface {
	Client(ctx context.Context) (*http.Client, error)
}

// Credential holds the identity currently bound to the session. It is safe
// for concurrent use; requests only read it.
type Credential struct {
	config *oauth2.Config

	mu         sync.RWMutex
	identity   *Identity
	generation uint64
}

func NewCredential(config *oauth2.Config) *Credential {
	return &Credential{config: config}
}

func (c *Credential) Get() *Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

func (c *Credential) Set(identity *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
	c.generation++
}

func (c *Credential) Clear() {
	c.Set(nil)
}

func (c *Credential) Bound() bool {
	return c.Get() != nil
}

// Generation changes every time the credential is set or cleared.
func (c *Credential) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Client returns an HTTP client authorised as the bound identity. Expired
// access tokens are refreshed by the oauth2 transport.
func (c *Credential) Client(ctx context.Context) (*http.Client, error) {
	identity := c.Get()
	if identity == nil || identity.Token == nil {
		return nil, ErrNotSignedIn
	}
	return c.config.Client(ctx, identity.Token), nil
}
