package account

import (
	"context"
	_ "embed" // Used to embed version for use with user agent
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/bluelinky/bluelink/internal/log"
	"github.com/bluelinky/bluelink/pkg/connector"
	"github.com/bluelinky/bluelink/pkg/connector/inet"
	"github.com/bluelinky/bluelink/pkg/form"
	"github.com/bluelinky/bluelink/pkg/protocol"
	"github.com/bluelinky/bluelink/pkg/vehicle"
)

var (
	//go:embed version.txt
	libraryVersion string
)

// DefaultRefreshTimeout bounds a token renewal when Config.RefreshTimeout is zero.
const DefaultRefreshTimeout = 30 * time.Second

var (
	// ErrLoginFailed indicates the token servlet did not issue a token.
	ErrLoginFailed = errors.New("login failed")
	// ErrNoRefreshToken indicates the session expired and cannot be renewed without the password.
	ErrNoRefreshToken = errors.New("session expired and no refresh token or password is available")
)

func buildUserAgent(app string) string {
	library := strings.TrimSpace("bluelink-go/" + libraryVersion)
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return library
	}
	path := strings.Split(build.Path, "/")
	if len(path) == 0 {
		return library
	}

	if app == "" {
		app = path[len(path)-1]
		var version string
		if build.Main.Version != "(devel)" && build.Main.Version != "" {
			version = build.Main.Version
		} else {
			for _, info := range build.Settings {
				if info.Key == "vcs.revision" {
					if len(info.Value) > 8 {
						version = info.Value[0:8]
					}
					break
				}
			}
		}

		if version != "" {
			app = fmt.Sprintf("%s/%s", app, version)
		}
	}

	return fmt.Sprintf("%s %s", app, library)
}

// Config holds the parameters used to log in.
type Config struct {
	Username string
	// Password may be empty when resuming a cached session, in which case the session cannot be
	// renewed once its refresh token is rejected.
	Password string

	// The default UserAgent is constructed from the build info, but can be overridden.
	UserAgent string
	// Endpoints defaults to protocol.DefaultEndpoints().
	Endpoints protocol.Endpoints
	// Transport defaults to an HTTPS connection using http.DefaultClient.
	Transport connector.Transport
	// Metrics, if set, is shared by every Vehicle the Account creates.
	Metrics *vehicle.Metrics
	// RefreshTimeout limits each token renewal, including the fallback login, independently of
	// the callers waiting on it. Defaults to DefaultRefreshTimeout.
	RefreshTimeout time.Duration
}

// Account holds an authenticated Blue Link session and creates Vehicles that use it. An Account
// is safe for concurrent use; every Vehicle it creates shares its token.
type Account struct {
	username  string
	password  string
	endpoints protocol.Endpoints
	transport connector.Transport
	metrics   *vehicle.Metrics

	refreshTimeout time.Duration

	source oauth2.TokenSource
	lock   sync.RWMutex
	token  *oauth2.Token
}

type tokenReply struct {
	Token *struct {
		AccessToken  string          `json:"access_token"`
		RefreshToken string          `json:"refresh_token"`
		ExpiresIn    json.RawMessage `json:"expires_in"`
	} `json:"Token"`
}

func newAccount(config Config) (*Account, error) {
	if config.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrLoginFailed)
	}
	transport := config.Transport
	if transport == nil {
		transport = inet.NewConnection(nil, buildUserAgent(config.UserAgent))
	}
	refreshTimeout := config.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = DefaultRefreshTimeout
	}
	return &Account{
		username:       config.Username,
		password:       config.Password,
		endpoints:      config.Endpoints.Merge(protocol.DefaultEndpoints()),
		transport:      transport,
		metrics:        config.Metrics,
		refreshTimeout: refreshTimeout,
	}, nil
}

// Login authenticates with the token servlet and returns an Account holding the session.
func Login(ctx context.Context, config Config) (*Account, error) {
	a, err := newAccount(config)
	if err != nil {
		return nil, err
	}
	token, err := a.requestToken(ctx, form.New("username", a.username, "password", a.password))
	if err != nil {
		return nil, err
	}
	a.setSource(token)
	log.Info("Logged in as %s", a.username)
	return a, nil
}

// NewFromToken resumes a session from a token previously obtained with [Account.Token]. An
// expired token is renewed on first use.
func NewFromToken(config Config, token *oauth2.Token) (*Account, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrLoginFailed)
	}
	a, err := newAccount(config)
	if err != nil {
		return nil, err
	}
	a.setSource(token)
	return a, nil
}

func (a *Account) setSource(token *oauth2.Token) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.token = token
	a.source = oauth2.ReuseTokenSource(token, &refresher{account: a})
}

// Username returns the account name the session was created for.
func (a *Account) Username() string {
	return a.username
}

// AccessToken returns the current session token.
func (a *Account) AccessToken() string {
	a.lock.RLock()
	defer a.lock.RUnlock()
	if a.token == nil {
		return ""
	}
	return a.token.AccessToken
}

// Token returns a copy of the current session token, suitable for caching.
func (a *Account) Token() *oauth2.Token {
	a.lock.RLock()
	defer a.lock.RUnlock()
	if a.token == nil {
		return nil
	}
	token := *a.token
	return &token
}

// RefreshIfNeeded renews the session token if it expires within ten seconds. Concurrent callers
// share a single renewal.
func (a *Account) RefreshIfNeeded(ctx context.Context) error {
	a.lock.RLock()
	source := a.source
	a.lock.RUnlock()
	if source == nil {
		return protocol.ErrNoSession
	}

	type outcome struct {
		token *oauth2.Token
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		token, err := source.Token()
		done <- outcome{token, err}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case result := <-done:
		if result.err != nil {
			return result.err
		}
		a.lock.Lock()
		a.token = result.token
		a.lock.Unlock()
		return nil
	}
}

// GetVehicle returns the Vehicle belonging to the account with the provided vin. The Vehicle
// starts loading its feature list immediately; see [vehicle.Vehicle.Wait].
func (a *Account) GetVehicle(ctx context.Context, vin, pin string) (*vehicle.Vehicle, error) {
	return vehicle.New(ctx, vehicle.Config{
		VIN:       vin,
		PIN:       pin,
		Session:   a,
		Transport: a.transport,
		Endpoints: a.endpoints,
		Metrics:   a.metrics,
	})
}

func (a *Account) requestToken(ctx context.Context, fields *form.Fields) (*oauth2.Token, error) {
	body, contentType := fields.Encode()
	url := strings.TrimSuffix(a.endpoints.Token, "/") + "/" + a.username
	log.Debug("Requesting token from %s", url)
	rsp, err := a.transport.Post(ctx, url, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	return parseToken(rsp, time.Now())
}

func parseToken(body []byte, now time.Time) (*oauth2.Token, error) {
	rsp, err := protocol.Normalize(body)
	if err != nil {
		return nil, err
	}
	if rsp.IsRaw() {
		return nil, fmt.Errorf("%w: unexpected reply %.64q", ErrLoginFailed, rsp.Text())
	}
	var reply tokenReply
	if err := json.Unmarshal([]byte(rsp.Text()), &reply); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if reply.Token == nil || reply.Token.AccessToken == "" {
		if message := rsp.String("E_IFFAILMSG"); message != "" {
			return nil, fmt.Errorf("%w: %s", ErrLoginFailed, message)
		}
		return nil, fmt.Errorf("%w: token not found in reply", ErrLoginFailed)
	}

	token := &oauth2.Token{
		AccessToken:  reply.Token.AccessToken,
		RefreshToken: reply.Token.RefreshToken,
		TokenType:    "Bearer",
	}
	if seconds := parseSeconds(reply.Token.ExpiresIn); seconds > 0 {
		token.Expiry = now.Add(time.Duration(seconds) * time.Second)
	} else {
		token.Expiry = jwtExpiry(token.AccessToken)
	}
	return token, nil
}

// parseSeconds reads expires_in, which the servlet sends as either a number or a string.
func parseSeconds(raw json.RawMessage) int64 {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	seconds, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0
	}
	return seconds
}

// jwtExpiry returns the exp claim of a JWT-shaped token, or the zero time (never expires) if the
// token is opaque.
func jwtExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// refresher renews the session for oauth2.ReuseTokenSource, which calls it only after the current
// token expires and serializes the calls.
type refresher struct {
	account *Account
}

func (r *refresher) Token() (*oauth2.Token, error) {
	a := r.account
	ctx, cancel := context.WithTimeout(context.Background(), a.refreshTimeout)
	defer cancel()
	current := a.Token()
	if current != nil && current.RefreshToken != "" {
		token, err := a.requestToken(ctx, form.New(
			"username", a.username,
			"refresh_token", current.RefreshToken,
			"grant_type", "refresh_token",
		))
		if err == nil {
			log.Debug("Refreshed session token for %s", a.username)
			return token, nil
		}
		log.Warning("Token refresh failed: %s", err)
	}
	if a.password == "" {
		return nil, ErrNoRefreshToken
	}
	log.Debug("Logging in again as %s", a.username)
	return a.requestToken(ctx, form.New("username", a.username, "password", a.password))
}
