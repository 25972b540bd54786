package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pngcrypt-go/internal/encryption"
)

// CodecCache memoises encryption.Codec construction. Building a codec runs
// PBKDF2, which dominates the cost of small transforms.
type CodecCache struct {
	cache *Cache
}

// NewCodecCache creates a codec cache; maxEntries <= 0 disables caching
func NewCodecCache(ttl time.Duration, maxEntries int) *CodecCache {
	if maxEntries <= 0 {
		return &CodecCache{}
	}
	return &CodecCache{cache: NewCache(ttl, maxEntries)}
}

// Get returns a codec for password and algorithm, building it on a miss
func (c *CodecCache) Get(password string, alg encryption.Algorithm) (*encryption.Codec, error) {
	if alg == "" {
		alg = encryption.DefaultAlgorithm
	}
	if c.cache == nil {
		return encryption.NewCodec(password, alg)
	}

	val, err := c.cache.GetOrLoad(codecKey(password, alg), func() (interface{}, error) {
		return encryption.NewCodec(password, alg)
	})
	if err != nil {
		return nil, err
	}
	return val.(*encryption.Codec), nil
}

// Len returns the number of cached codecs
func (c *CodecCache) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Size()
}

// Close releases the cache's background goroutine
func (c *CodecCache) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// codecKey never contains the password itself
func codecKey(password string, alg encryption.Algorithm) string {
	sum := sha256.Sum256([]byte(password))
	return string(alg) + ":" + hex.EncodeToString(sum[:])
}
