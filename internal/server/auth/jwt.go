// Package auth holds the credential primitives of the server: bcrypt
// password hashing and HS256 session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSecret is returned when a token is issued or verified with an
// empty signing secret.
var ErrMissingSecret = errors.New("jwt secret is not configured")

// Claims is the claim set of a session token. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// IssueToken signs claims with HS256. IssuedAt and ExpiresAt are overwritten
// from now and ttl.
func IssueToken(claims Claims, secretKey []byte, ttl time.Duration) (string, error) {
	return issueAt(claims, secretKey, ttl, time.Now())
}

func issueAt(claims Claims, secretKey []byte, ttl time.Duration, now time.Time) (string, error) {
	if len(secretKey) == 0 {
		return "", ErrMissingSecret
	}

	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken parses tokenString, checks the HS256 signature and the expiry,
// and returns the claims. Expired tokens yield common.ErrTokenExpired, every
// other failure common.ErrInvalidToken.
func VerifyToken(tokenString string, secretKey []byte) (*Claims, error) {
	if len(secretKey) == 0 {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Issuer binds a secret and a TTL so callers do not carry them around.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secretKey string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secretKey), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given claims.
func (i *Issuer) Issue(claims Claims) (string, error) {
	return issueAt(claims, i.secret, i.ttl, i.now())
}

// Verify parses and validates a token issued by Issue.
func (i *Issuer) Verify(token string) (*Claims, error) {
	return VerifyToken(token, i.secret)
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}
