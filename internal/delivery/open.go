package delivery

import (
    "fmt"
    "time"

    "github.com/rs/zerolog/log"
)

// OpenStore returns the store named by kind ("memory" or "redis").
func OpenStore(kind, redisURL string, ttl time.Duration) (Store, error) {
    switch kind {
    case "", "memory":
        return NewMemoryStore(ttl), nil
    case "redis":
        s, err := NewRedisStore(redisURL, ttl)
        if err != nil { return nil, fmt.Errorf("redis delivery store: %w", err) }
        log.Info().Dur("ttl", ttl).Msg("delivery store: redis")
        return s, nil
    }
    return nil, fmt.Errorf("unknown delivery store %q", kind)
}
