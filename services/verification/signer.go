// Package verification signs and checks the links sent to newly added participants
// so they can confirm they own the email address.
package verification

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

const purposeClaim = "verify_email"

var ErrInvalidToken = errors.New("invalid verification token")

// Claims is what a verification token proves.
type Claims struct {
	Email    string
	Identity string
	Expires  time.Time
}

// Signer issues HS256 tokens embedded in verification URLs.
type Signer struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewSigner(secret, baseURL string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("verification secret is required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// GenerateToken creates a signed token binding email to the chat identity that added it.
func (s *Signer) GenerateToken(email, identity string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      email,
		"identity": identity,
		"purpose":  purposeClaim,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerificationLink returns the URL a participant opens to confirm email.
func (s *Signer) VerificationLink(email, identity string) (string, error) {
	token, err := s.GenerateToken(email, identity)
	if err != nil {
		return "", fmt.Errorf("failed to sign verification token: %w", err)
	}
	return s.baseURL + "/verify/" + url.PathEscape(token), nil
}

// ValidateToken parses tokenString and returns its claims if the signature,
// purpose and expiry all check out.
func (s *Signer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if p, _ := claims["purpose"].(string); p != purposeClaim {
		return nil, ErrInvalidToken
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return nil, ErrInvalidToken
	}
	identity, _ := claims["identity"].(string)
	exp, _ := claims["exp"].(float64)

	return &Claims{Email: email, Identity: identity, Expires: time.Unix(int64(exp), 0)}, nil
}
