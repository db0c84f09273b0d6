package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session token verification errors. Handlers map all three to 401; the
// distinction is for logs and tests only.
var (
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// JWTManager issues and verifies the signed session token. The secret is
// process-wide, loaded once at startup and never rotated at runtime.
type JWTManager struct {
	Secret []byte
	TTL    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{Secret: []byte(secret), TTL: ttl}
}

// Claims is the decoded session token payload: who the caller is and what
// role they were issued with. Subscription status is deliberately not here;
// it can change between issuance and use, so gates look it up fresh.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issue produces a signed token embedding the user id, role and expiry.
func (m *JWTManager) Issue(userID, role string) (string, time.Time, error) {
	exp := time.Now().Add(m.TTL)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// Verify checks signature and expiry. It returns ErrTokenMissing for an empty
// token, ErrTokenExpired for a well-signed token past its expiry, and
// ErrTokenInvalid for everything else.
func (m *JWTManager) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrTokenMissing
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
