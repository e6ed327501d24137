package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Cache defines the interface for caching.
// Values are advisory: concurrent writers to the same key may race and the
// last write wins.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "sieve:v1:"

// EvidenceKey builds the key for gathered evidence of a (candidate, constraint) pair
func EvidenceKey(candidate, constraintText string) string {
	return hashKey("evidence", normalize(candidate), normalize(constraintText))
}

// SearchKey builds the key for results of a (query, scope) pair
func SearchKey(query, scope string) string {
	return hashKey("search", normalize(query), normalize(scope))
}

func hashKey(kind string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyPrefix + kind + ":" + hex.EncodeToString(hash[:])
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// GetJSON decodes a cached JSON value into out. A decode failure is a miss.
func GetJSON(c Cache, key string, out any) bool {
	if c == nil {
		return false
	}
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// SetJSON encodes value as JSON and stores it
func SetJSON(c Cache, key string, value any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}
