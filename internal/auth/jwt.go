package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	KindSession  = "session"
	KindRemember = "remember"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenManager struct {
	secret      []byte
	issuer      string
	sessionTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

func NewTokenManager(secret, issuer string, sessionTTL, rememberTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:      []byte(secret),
		issuer:      issuer,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		now:         time.Now,
	}
}

type Claims struct {
	UserID string `json:"uid"`
	// SessionToken must equal the user's current remember digest for a
	// session token to be honoured.
	SessionToken string `json:"sst,omitempty"`
	Kind         string `json:"typ"`
	jwt.RegisteredClaims
}

func (tm *TokenManager) IssueSession(userID, sessionToken string) (string, time.Time, error) {
	return tm.issue(Claims{UserID: userID, SessionToken: sessionToken, Kind: KindSession}, tm.sessionTTL)
}

// IssueRemember signs the user id carried by the persistent login cookie.
func (tm *TokenManager) IssueRemember(userID string) (string, time.Time, error) {
	return tm.issue(Claims{UserID: userID, Kind: KindRemember}, tm.rememberTTL)
}

func (tm *TokenManager) issue(c Claims, ttl time.Duration) (string, time.Time, error) {
	now := tm.now()
	exp := now.Add(ttl)
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    tm.issuer,
		Subject:   c.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

// Parse verifies signature, issuer, expiry and kind.
func (tm *TokenManager) Parse(tokenStr, kind string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Kind != kind || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
