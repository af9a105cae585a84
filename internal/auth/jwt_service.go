package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL defines the fallback validity period for admin tokens.
const DefaultTokenTTL = 15 * time.Minute

// PermissionAll grants every admin permission.
const PermissionAll = "*"

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TokenTTL time.Duration
	Clock    func() time.Time
}

// Claims represents the custom claims embedded in admin tokens.
type Claims struct {
	AdminID     string   `json:"aid"`
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the token grants permission.
func (c *Claims) HasPermission(permission string) bool {
	if c == nil {
		return false
	}
	permission = strings.TrimSpace(permission)
	for _, granted := range c.Permissions {
		if granted == PermissionAll || granted == permission {
			return true
		}
	}
	return false
}

// TokenInput holds the parameters used when issuing a new admin token.
type TokenInput struct {
	AdminID     string
	Permissions []string
	TTL         time.Duration
}

// JWTService issues and validates the HS256 bearer tokens guarding the admin API.
type JWTService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret:   []byte(cfg.Secret),
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
		ttl:      ttl,
		now:      now,
	}, nil
}

// Issue signs a token for an administrator. A zero input TTL uses the service default.
func (s *JWTService) Issue(input TokenInput) (string, error) {
	adminID := strings.TrimSpace(input.AdminID)
	if adminID == "" {
		return "", errors.New("jwt: admin id is required")
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	claims := &Claims{
		AdminID:     adminID,
		Permissions: normalizePermissions(input.Permissions),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and validates a signed token, returning its claims.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		options = append(options, jwt.WithAudience(s.audience))
	}

	var claims Claims
	_, err := jwt.NewParser(options...).ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if claims.AdminID == "" {
		return nil, errors.New("jwt: missing admin id claim")
	}
	return &claims, nil
}

func normalizePermissions(perms []string) []string {
	if len(perms) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, perm := range perms {
		perm = strings.TrimSpace(perm)
		if perm == "" {
			continue
		}
		if _, ok := set[perm]; ok {
			continue
		}
		set[perm] = struct{}{}
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}
