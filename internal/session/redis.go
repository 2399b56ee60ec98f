package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps the session in Redis. The cookie only carries a random
// uuid.
type RedisStore struct {
	rdb  *redis.Client
	opts CookieOptions
}

func NewRedisStore(rdb *redis.Client, opts CookieOptions) *RedisStore {
	return &RedisStore{rdb: rdb, opts: opts}
}

func (s *RedisStore) Get(c *gin.Context) (*Session, error) {
	id, err := c.Cookie(s.opts.Name)
	if err != nil || id == "" {
		return nil, nil
	}

	b, err := s.rdb.Get(c.Request.Context(), keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			expireCookie(c, s.opts)
			return nil, nil
		}

		return nil, fmt.Errorf("failed to load session, %w", err)
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session, %w", err)
	}

	return &sess, nil
}

// Save stores sess under a new id. Any previous id is dropped so ids are
// never reused across logins.
func (s *RedisStore) Save(c *gin.Context, sess *Session) error {
	ctx := c.Request.Context()

	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session, %w", err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("failed to generate session id, %w", err)
	}

	if err := s.rdb.Set(ctx, keyPrefix+id.String(), b, s.opts.MaxAge).Err(); err != nil {
		return fmt.Errorf("failed to store session, %w", err)
	}

	if old, err := c.Cookie(s.opts.Name); err == nil && old != "" {
		if err := s.rdb.Del(ctx, keyPrefix+old).Err(); err != nil {
			return fmt.Errorf("failed to drop old session, %w", err)
		}
	}

	writeCookie(c, s.opts, id.String())
	ToContext(c, sess)
	return nil
}

// Clear always expires the cookie, even when Redis can't be reached
func (s *RedisStore) Clear(c *gin.Context) error {
	expireCookie(c, s.opts)
	ToContext(c, nil)

	if id, err := c.Cookie(s.opts.Name); err == nil && id != "" {
		if err := s.rdb.Del(c.Request.Context(), keyPrefix+id).Err(); err != nil {
			return fmt.Errorf("failed to delete session, %w", err)
		}
	}

	return nil
}
