// Package auth issues and verifies the bearer tokens that tie API calls to
// an account. Tokens are HS256 JWTs; the subject claim carries the account
// id.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the claim set carried by a token.
type Identity struct {
	AccountID uint
	Phone     string
	Name      string
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

func (i *Issuer) GenerateToken(id Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(id.AccountID), 10),
		"phone": id.Phone,
		"name":  id.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(i.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ParseToken verifies the signature and expiry and returns the identity the
// token was issued for. Any failure collapses to ErrInvalidToken; callers
// have no reason to distinguish a forged token from a stale one.
func (i *Issuer) ParseToken(tokenStr string) (*Identity, error) {
	tkn, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tkn.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	accountID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || accountID == 0 {
		return nil, ErrInvalidToken
	}
	phone, _ := claims["phone"].(string)
	name, _ := claims["name"].(string)
	return &Identity{AccountID: uint(accountID), Phone: phone, Name: name}, nil
}
