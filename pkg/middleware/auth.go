package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/JaimeStill/verne/pkg/handlers"
)

// Authentication modes.
const (
	AuthModeJWT  = "jwt"
	AuthModeOIDC = "oidc"
)

var (
	ErrMissingToken = errors.New("authorization header required")
	ErrInvalidToken = errors.New("invalid token")
)

// AuthConfig holds bearer token authentication settings.
// Mode "jwt" verifies HMAC-signed tokens with Secret; mode "oidc" verifies
// ID tokens against the Issuer's published keys for the Audience client.
type AuthConfig struct {
	Enabled     bool     `toml:"enabled"`
	Mode        string   `toml:"mode"`
	Secret      string   `toml:"secret"`
	Issuer      string   `toml:"issuer"`
	Audience    string   `toml:"audience"`
	PublicPaths []string `toml:"public_paths"`
}

// AuthEnv maps auth config fields to environment variable names.
type AuthEnv struct {
	Enabled     string
	Mode        string
	Secret      string
	Issuer      string
	Audience    string
	PublicPaths string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuthConfig) Finalize(env *AuthEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	c.Enabled = overlay.Enabled

	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
	if overlay.PublicPaths != nil {
		c.PublicPaths = overlay.PublicPaths
	}
}

// IsPublic reports whether path bypasses authentication. Entries ending in
// "*" match by prefix.
func (c *AuthConfig) IsPublic(path string) bool {
	for _, p := range c.PublicPaths {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func (c *AuthConfig) loadDefaults() {
	if c.Mode == "" {
		c.Mode = AuthModeJWT
	}
}

func (c *AuthConfig) loadEnv(env *AuthEnv) {
	if v, ok := envBool(env.Enabled); ok {
		c.Enabled = v
	}
	if v, ok := envString(env.Mode); ok {
		c.Mode = v
	}
	if v, ok := envString(env.Secret); ok {
		c.Secret = v
	}
	if v, ok := envString(env.Issuer); ok {
		c.Issuer = v
	}
	if v, ok := envString(env.Audience); ok {
		c.Audience = v
	}
	if v, ok := envList(env.PublicPaths); ok {
		c.PublicPaths = v
	}
}

func (c *AuthConfig) validate() error {
	switch c.Mode {
	case AuthModeJWT:
		if c.Enabled && c.Secret == "" {
			return fmt.Errorf("secret required for jwt mode")
		}
	case AuthModeOIDC:
		if c.Enabled && (c.Issuer == "" || c.Audience == "") {
			return fmt.Errorf("issuer and audience required for oidc mode")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %s", c.Mode)
	}
	return nil
}

// Principal identifies the authenticated caller.
type Principal struct {
	Subject string
	Email   string
}

type principalKey struct{}

// PrincipalFrom returns the authenticated caller stored on ctx.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (Principal, error)
}

// NewVerifier builds the verifier for the configured mode. OIDC discovery
// contacts the issuer, so ctx bounds that request.
func NewVerifier(ctx context.Context, cfg *AuthConfig) (TokenVerifier, error) {
	switch cfg.Mode {
	case AuthModeOIDC:
		provider, err := oidc.NewProvider(ctx, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery: %w", err)
		}
		return &oidcVerifier{
			verifier: provider.Verifier(&oidc.Config{ClientID: cfg.Audience}),
		}, nil
	default:
		return NewHMACVerifier(cfg.Secret, cfg.Issuer, cfg.Audience), nil
	}
}

// NewHMACVerifier verifies HS256/384/512 tokens. Empty issuer or audience
// skips that claim check.
func NewHMACVerifier(secret, issuer, audience string) TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &hmacVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

type hmacClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type hmacVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func (v *hmacVerifier) Verify(_ context.Context, raw string) (Principal, error) {
	var claims hmacClaims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Principal{Subject: claims.Subject, Email: claims.Email}, nil
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (v *oidcVerifier) Verify(ctx context.Context, raw string) (Principal, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := token.Claims(&claims); err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Principal{Subject: token.Subject, Email: claims.Email}, nil
}

// Auth returns middleware that requires a valid bearer token on every
// request except preflights and configured public paths.
func Auth(cfg *AuthConfig, verifier TokenVerifier, logger *slog.Logger) Middleware {
	logger = logger.With("middleware", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || r.Method == http.MethodOptions || cfg.IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := bearerToken(r)
			if err == nil {
				var p Principal
				if p, err = verifier.Verify(r.Context(), raw); err == nil {
					ctx := context.WithValue(r.Context(), principalKey{}, p)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			w.Header().Set("WWW-Authenticate", `Bearer realm="verne"`)
			handlers.RespondError(w, logger, http.StatusUnauthorized, err)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return strings.TrimSpace(token), nil
}
