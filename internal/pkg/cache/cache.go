// Package cache keeps rendered public content payloads in Redis.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	pkgredis "github.com/kontenhub/cms/internal/pkg/redis"
	"go.uber.org/zap"
)

const (
	contentPrefix    = "cms:content:"
	generationPrefix = "cms:content-gen:"
)

// ContentKey is the Redis key of the public payload for slug.
func ContentKey(slug string) string { return contentPrefix + slug }

// GenerationKey is the Redis key of the write counter for slug.
func GenerationKey(slug string) string { return generationPrefix + slug }

// store is the subset of the Redis client the cache needs.
type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Content caches public content payloads by model slug. A nil *Content, or
// one without a Redis client, never hits and ignores writes.
//
// Every entry carries the slug's generation at the time the payload was read
// from the database. Invalidate bumps the generation, so a payload read
// before a write and stored after it is never served.
type Content struct {
	st  store
	ttl time.Duration
	log *zap.Logger
}

type entry struct {
	Gen     int64           `json:"gen"`
	Payload json.RawMessage `json:"payload"`
}

func NewContent(rc *pkgredis.Client, ttl time.Duration, log *zap.Logger) *Content {
	if rc == nil {
		return newContent(nil, ttl, log)
	}
	return newContent(rc, ttl, log)
}

func newContent(st store, ttl time.Duration, log *zap.Logger) *Content {
	if log == nil {
		log = zap.NewNop()
	}
	return &Content{st: st, ttl: ttl, log: log}
}

func (c *Content) enabled() bool { return c != nil && c.st != nil && c.ttl > 0 }

// Generation returns the current write counter for slug. Callers read it
// before loading the payload they later hand to Put. ok is false when the
// counter cannot be read, in which case nothing should be cached.
func (c *Content) Generation(ctx context.Context, slug string) (gen int64, ok bool) {
	if !c.enabled() {
		return 0, false
	}
	raw, err := c.st.Get(ctx, GenerationKey(slug))
	if err != nil {
		c.log.Warn("content cache generation read failed", zap.String("slug", slug), zap.Error(err))
		return 0, false
	}
	if raw == "" {
		return 0, true
	}
	gen, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.log.Warn("content cache generation unreadable", zap.String("slug", slug), zap.Error(err))
		return 0, false
	}
	return gen, true
}

// Get decodes the cached payload for slug into dest and reports a hit.
// Entries written under an older generation are misses.
func (c *Content) Get(ctx context.Context, slug string, dest any) bool {
	if !c.enabled() {
		return false
	}
	raw, err := c.st.Get(ctx, ContentKey(slug))
	if err != nil {
		c.log.Warn("content cache read failed", zap.String("slug", slug), zap.Error(err))
		return false
	}
	if raw == "" {
		return false
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.log.Warn("content cache entry unreadable", zap.String("slug", slug), zap.Error(err))
		return false
	}
	current, ok := c.Generation(ctx, slug)
	if !ok || current != e.Gen {
		return false
	}
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		c.log.Warn("content cache entry unreadable", zap.String("slug", slug), zap.Error(err))
		return false
	}
	return true
}

// Put stores v for slug, tagged with gen as returned by Generation before v
// was loaded.
func (c *Content) Put(ctx context.Context, slug string, gen int64, v any) {
	if !c.enabled() {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	raw, err := json.Marshal(entry{Gen: gen, Payload: payload})
	if err != nil {
		return
	}
	if err := c.st.Set(ctx, ContentKey(slug), raw, c.ttl); err != nil {
		c.log.Warn("content cache write failed", zap.String("slug", slug), zap.Error(err))
	}
}

// Invalidate bumps the generation of the given slugs and drops their
// cached payloads.
func (c *Content) Invalidate(ctx context.Context, slugs ...string) {
	if !c.enabled() || len(slugs) == 0 {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if s == "" {
			continue
		}
		if _, err := c.st.Incr(ctx, GenerationKey(s), 0); err != nil {
			c.log.Warn("content cache generation bump failed", zap.String("slug", s), zap.Error(err))
		}
		keys = append(keys, ContentKey(s))
	}
	if err := c.st.Del(ctx, keys...); err != nil {
		c.log.Warn("content cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
