package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the fixed identity shape embedded in every token. No dynamic
// role dictionaries: id, username and the admin flag are all a route guard
// needs.
type Claims struct {
	UID      uint   `json:"uid"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	Typ      string `json:"typ,omitempty"` // "refresh" on refresh tokens
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (j *JWTer) Issue(uid uint, username string, admin bool) (string, error) {
	return j.sign(uid, username, admin, "", j.AccessTTL)
}

// IssueRefresh mints the longer-lived refresh token. It is only accepted by
// ParseRefresh, never by the request gate.
func (j *JWTer) IssueRefresh(uid uint, username string, admin bool) (string, error) {
	return j.sign(uid, username, admin, "refresh", j.RefreshTTL)
}

func (j *JWTer) sign(uid uint, username string, admin bool, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:      uid,
		Username: username,
		Admin:    admin,
		Typ:      typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Parse validates signature, issuer and expiry. Every failure collapses to
// ErrInvalidToken so the caller cannot probe which check tripped.
func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	c, err := j.parse(tokenStr)
	if err != nil || c.Typ == "refresh" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func (j *JWTer) ParseRefresh(tokenStr string) (*Claims, error) {
	c, err := j.parse(tokenStr)
	if err != nil || c.Typ != "refresh" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func (j *JWTer) parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))

	if err != nil {
		return nil, ErrInvalidToken
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, ErrInvalidToken
}
