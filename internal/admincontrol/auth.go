package admincontrol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/supaview/service-core-go/internal/profile"
	"github.com/supaview/service-core-go/pkg/utilities"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)

// CallerKind tells how an admin caller authenticated.
type CallerKind string

const (
	CallerService CallerKind = "service"
	CallerUser    CallerKind = "user"
)

// Caller is the resolved identity of an admin request.
type Caller struct {
	Kind   CallerKind
	UserID string
	Email  string
}

// Identity is an authenticated user as reported by the auth provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserResolver turns a bearer token into a user, or ErrInvalidToken.
type UserResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// RoleChecker answers whether a user holds the admin role.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Verifier authenticates admin requests: service secret first, then a user
// token that is either allow-listed by email or carries the admin role.
type Verifier struct {
	secret    string
	allowlist map[string]struct{}
	resolver  UserResolver
	roles     RoleChecker
	logger    *zap.SugaredLogger
}

func NewVerifier(secret string, allowlist []string, resolver UserResolver, roles RoleChecker, logger *zap.SugaredLogger) *Verifier {
	set := make(map[string]struct{}, len(allowlist))
	for _, e := range allowlist {
		set[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &Verifier{secret: secret, allowlist: set, resolver: resolver, roles: roles, logger: logger}
}

// VerifyAdmin returns the caller or ErrUnauthorized. Any other error is an
// infrastructure failure.
func (v *Verifier) VerifyAdmin(r *http.Request) (*Caller, error) {
	if utilities.ConstantTimeCompare(r.Header.Get("x-admin-token"), v.secret) {
		return &Caller{Kind: CallerService}, nil
	}
	token := utilities.BearerToken(r)
	if token == "" {
		return nil, ErrUnauthorized
	}
	if utilities.ConstantTimeCompare(token, v.secret) {
		return &Caller{Kind: CallerService}, nil
	}
	if v.resolver == nil {
		return nil, ErrUnauthorized
	}

	id, err := v.resolver.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	caller := &Caller{Kind: CallerUser, UserID: id.ID, Email: id.Email}

	if _, ok := v.allowlist[strings.ToLower(id.Email)]; ok && id.Email != "" {
		return caller, nil
	}
	if v.roles == nil {
		return nil, ErrUnauthorized
	}
	admin, err := v.roles.IsAdmin(r.Context(), id.ID)
	if err != nil {
		if errors.Is(err, profile.ErrInvalidUserID) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("role lookup: %w", err)
	}
	if !admin {
		v.logger.Infow("admin access denied", "user_id", id.ID, "email", id.Email)
		return nil, ErrUnauthorized
	}
	return caller, nil
}

type supabaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 tokens signed with the project's JWT secret.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (j *JWTResolver) Resolve(_ context.Context, token string) (*Identity, error) {
	claims := &supabaseClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return &Identity{ID: claims.Subject, Email: claims.Email}, nil
}

// RemoteResolver asks the auth provider's user endpoint who owns the token.
type RemoteResolver struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewRemoteResolver(baseURL, apiKey string, client *http.Client) *RemoteResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteResolver{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

func (rr *RemoteResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rr.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", rr.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := rr.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("auth provider returned %d", resp.StatusCode)
	}
	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if id.ID == "" {
		return nil, ErrInvalidToken
	}
	return &id, nil
}
