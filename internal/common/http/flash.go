package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

const (
	FlashCategoryInfo       = "info"
	FlashCategoryAuth       = "auth"
	FlashCategoryAuthz      = "authz"
	FlashCategoryValidation = "validation"
	FlashCategoryNotFound   = "not_found"
	FlashCategoryStore      = "store"
)

type Flash struct {
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func Success(message string) Flash {
	return Flash{Kind: FlashSuccess, Category: FlashCategoryInfo, Message: message}
}

type flashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// FlashCodec stores one-shot messages in a signed cookie so they survive
// exactly one redirect.
type FlashCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewFlashCodec(secret []byte, ttl time.Duration) *FlashCodec {
	if ttl <= 0 {
		ttl = constants.FlashTTL
	}
	return &FlashCodec{secret: secret, ttl: ttl, now: time.Now}
}

func (c *FlashCodec) Encode(flashes []Flash) (string, error) {
	now := c.now()
	claims := flashClaims{
		Flashes: flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign flash: %w", err)
	}
	return signed, nil
}

func (c *FlashCodec) Decode(value string) ([]Flash, error) {
	claims := &flashClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid flash token")
	}
	return claims.Flashes, nil
}

// Set queues flashes for the next page view, keeping any that are still
// pending from the incoming request.
func (c *FlashCodec) Set(w http.ResponseWriter, r *http.Request, flashes ...Flash) error {
	if len(flashes) == 0 {
		return nil
	}
	pending := c.read(r)
	value, err := c.Encode(append(pending, flashes...))
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     constants.FlashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   IsSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Consume returns the pending flashes and clears the cookie. A tampered or
// expired cookie yields no flashes.
func (c *FlashCodec) Consume(w http.ResponseWriter, r *http.Request) []Flash {
	if _, err := r.Cookie(constants.FlashCookieName); err != nil {
		return []Flash{}
	}
	flashes := c.read(r)
	http.SetCookie(w, &http.Cookie{
		Name:     constants.FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	return flashes
}

func (c *FlashCodec) read(r *http.Request) []Flash {
	cookie, err := r.Cookie(constants.FlashCookieName)
	if err != nil || cookie.Value == "" {
		return []Flash{}
	}
	flashes, err := c.Decode(cookie.Value)
	if err != nil || flashes == nil {
		return []Flash{}
	}
	return flashes
}
