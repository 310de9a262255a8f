package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/digitaldrywood/sheetsdemo/internal/database"
)

// Fixed width so that stored timestamps sort lexically.
const signedInLayout = "2006-01-02T15:04:05.000000000Z"

// Scopes requested at sign in: spreadsheet access plus the basic profile.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
}

type AccountStore interface {
	SaveAccount(account *database.Account) error
	LastSignedInAccount() (*database.Account, error)
	DeleteAccount(email string) error
}

// Exactly one of Identity and Err is set.
type SignInResult struct {
	Identity *Identity
	Err      error
}

type Auth struct {
	config     *oauth2.Config
	credential *Credential
	store      AccountStore

	openBrowser     func(url string) error
	userinfoOptions []option.ClientOption
	now             func() time.Time

	storeMu   sync.Mutex
	signingIn atomic.Bool
	wg        sync.WaitGroup
}

func NewAuth(credentialsPath, redirectURL string, store AccountStore) (*Auth, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	config.RedirectURL = redirectURL

	return newAuth(config, store), nil
}

func newAuth(config *oauth2.Config, store AccountStore) *Auth {
	return &Auth{
		config:      config,
		credential:  NewCredential(config),
		store:       store,
		openBrowser: openBrowser,
		now:         time.Now,
	}
}

func (a *Auth) Credential() *Credential {
	return a.credential
}

// RestoreSignIn binds the last signed in account, if any, without user
// interaction. It returns nil when there is no previous sign in.
func (a *Auth) RestoreSignIn() (*Identity, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()

	account, err := a.store.LastSignedInAccount()
	if err != nil {
		return nil, fmt.Errorf("unable to read last signed in account: %w", err)
	}
	if account == nil {
		slog.Debug("no previous sign in")
		return nil, nil
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal([]byte(account.Token), tok); err != nil {
		return nil, fmt.Errorf("unable to decode stored token for %s: %w", account.Email, err)
	}

	identity := &Identity{
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Token:       tok,
	}
	a.credential.Set(identity)

	slog.Info("restored sign in", "email", identity.Email, "name", identity.DisplayName)

	return identity, nil
}

// BeginInteractiveSignIn opens the consent page in the browser and returns
// at once. The returned channel delivers a single result, when the consent
// redirect arrives or ctx is done, and is then closed.
func (a *Auth) BeginInteractiveSignIn(ctx context.Context) <-chan SignInResult {
	results := make(chan SignInResult, 1)

	if !a.signingIn.CompareAndSwap(false, true) {
		results <- SignInResult{Err: &AuthError{Code: StatusSignInInProgress}}
		close(results)
		return results
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(results)
		defer a.signingIn.Store(false)

		identity, err := a.consent(ctx)
		if err != nil {
			results <- SignInResult{Err: err}
			return
		}
		results <- SignInResult{Identity: identity}
	}()

	return results
}

func (a *Auth) consent(ctx context.Context) (*Identity, error) {
	receiver, err := listenCallback(a.config.RedirectURL)
	if err != nil {
		return nil, &AuthError{Code: StatusInternalError, Err: err}
	}
	defer receiver.Close()

	config := *a.config
	config.RedirectURL = receiver.redirectURL

	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	slog.Info("waiting for sign in", "url", authURL)
	if err := a.openBrowser(authURL); err != nil {
		slog.Warn("failed to open browser, visit the URL manually", "url", authURL, "error", err)
	}

	var response authorizationResponse
	select {
	case <-ctx.Done():
		return nil, &AuthError{Code: StatusSignInCancelled, Err: ctx.Err()}
	case response = <-receiver.responses:
	}

	switch {
	case response.Error == "access_denied":
		return nil, &AuthError{Code: StatusSignInCancelled, Err: errors.New("consent denied")}
	case response.Error != "":
		return nil, &AuthError{Code: StatusSignInFailed, Err: fmt.Errorf("authorization error %q", response.Error)}
	case response.State != state:
		return nil, &AuthError{Code: StatusSignInFailed, Err: errors.New("state mismatch in authorization response")}
	}

	tok, err := config.Exchange(ctx, response.Code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, signInError(fmt.Errorf("unable to exchange authorization code: %w", err))
	}

	profile, err := a.profile(ctx, config.Client(ctx, tok))
	if err != nil {
		return nil, signInError(fmt.Errorf("unable to fetch profile: %w", err))
	}
	if profile.Email == "" {
		return nil, &AuthError{Code: StatusSignInFailed, Err: errors.New("profile has no email address")}
	}

	return &Identity{
		Email:       profile.Email,
		DisplayName: profile.Name,
		Token:       tok,
	}, nil
}

func (a *Auth) profile(ctx context.Context, client *http.Client) (*oauth2api.Userinfo, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	opts = append(opts, a.userinfoOptions...)

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return svc.Userinfo.Get().Context(ctx).Do()
}

// Rejections by the provider fail the sign in, anything else is treated as
// a network problem.
func signInError(err error) *AuthError {
	var rerr *oauth2.RetrieveError
	var gerr *googleapi.Error

	if errors.As(err, &rerr) || errors.As(err, &gerr) {
		return &AuthError{Code: StatusSignInFailed, Err: err}
	}
	return &AuthError{Code: StatusNetworkError, Err: err}
}

// CompleteSignIn binds a successful sign in to the credential and remembers
// the account for RestoreSignIn. A failed sign in is logged and returned; it
// never changes the credential.
func (a *Auth) CompleteSignIn(result SignInResult) error {
	if result.Err != nil {
		code := StatusInternalError
		var aerr *AuthError
		if errors.As(result.Err, &aerr) {
			code = aerr.Code
		}
		slog.Warn("sign in failed", "code", int(code), "error", result.Err)
		return result.Err
	}

	identity := result.Identity
	if identity == nil || identity.Token == nil {
		err := &AuthError{Code: StatusInternalError, Err: errors.New("sign in result has no identity")}
		slog.Warn("sign in failed", "code", int(err.Code), "error", err)
		return err
	}

	b, err := json.Marshal(identity.Token)
	if err != nil {
		return fmt.Errorf("unable to encode token: %w", err)
	}

	account := &database.Account{
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Token:       string(b),
		SignedInAt:  a.now().UTC().Format(signedInLayout),
	}

	a.storeMu.Lock()
	defer a.storeMu.Unlock()

	a.credential.Set(identity)
	slog.Info("signed in", "email", identity.Email, "name", identity.DisplayName)

	if err := a.store.SaveAccount(account); err != nil {
		return fmt.Errorf("signed in but unable to remember account: %w", err)
	}

	return nil
}

// SignOut unbinds the credential immediately and forgets the stored account
// in the background. Nothing is reported back.
func (a *Auth) SignOut() {
	a.storeMu.Lock()
	identity := a.credential.Get()
	if identity == nil {
		a.storeMu.Unlock()
		return
	}
	a.credential.Clear()
	generation := a.credential.Generation()
	a.storeMu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		a.storeMu.Lock()
		defer a.storeMu.Unlock()

		// signed in again in the meantime
		if a.credential.Generation() != generation {
			return
		}

		if err := a.store.DeleteAccount(identity.Email); err != nil {
			slog.Warn("failed to forget account", "email", identity.Email, "error", err)
			return
		}

		slog.Info("signed out", "email", identity.Email)
	}()
}

// Pending sign ins only finish once their context is done.
func (a *Auth) Close() {
	a.wg.Wait()
}
