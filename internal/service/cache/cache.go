package cache

import "time"

// BytesCache stores raw source-API response payloads under a TTL. Both
// implementations are safe for concurrent use by the collector fan-out.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
