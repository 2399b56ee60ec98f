package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// CookieStore keeps the session in a HS256 signed cookie
type CookieStore struct {
	secret []byte
	opts   CookieOptions
}

func NewCookieStore(secret []byte, opts CookieOptions) (*CookieStore, error) {
	if len(secret) == 0 {
		return nil, errors.New("no session secret provided")
	}

	return &CookieStore{secret: secret, opts: opts}, nil
}

func (s *CookieStore) Get(c *gin.Context) (*Session, error) {
	raw, err := c.Cookie(s.opts.Name)
	if err != nil || raw == "" {
		return nil, nil
	}

	var cl claims
	token, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		// Tampered or expired, drop it so the browser stops sending it
		zap.L().Debug("Discarding invalid session cookie", zap.Error(err))
		expireCookie(c, s.opts)
		return nil, nil
	}

	return &Session{Username: cl.Username, Email: cl.Email}, nil
}

func (s *CookieStore) Save(c *gin.Context, sess *Session) error {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: sess.Username,
		Email:    sess.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.MaxAge)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session, %w", err)
	}

	writeCookie(c, s.opts, signed)
	ToContext(c, sess)
	return nil
}

func (s *CookieStore) Clear(c *gin.Context) error {
	expireCookie(c, s.opts)
	ToContext(c, nil)
	return nil
}
