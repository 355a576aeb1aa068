package delivery

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps artifacts in Redis so several workbench processes can
// serve each other's downloads. Payload and metadata expire together.
type RedisStore struct {
    client *redis.Client
    keyNS  string
    ttl    time.Duration
}

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil {
        _ = c.Close()
        return nil, err
    }
    if ttl <= 0 { ttl = 15 * time.Minute }
    return &RedisStore{client: c, keyNS: "artifact", ttl: ttl}, nil
}

func (s *RedisStore) dataKey(id string) string { return fmt.Sprintf("%s:%s:data", s.keyNS, id) }
func (s *RedisStore) metaKey(id string) string { return fmt.Sprintf("%s:%s:meta", s.keyNS, id) }

func (s *RedisStore) Put(ctx context.Context, a Artifact) (string, error) {
    if a.Created.IsZero() { a.Created = time.Now() }
    id := uuid.NewString()
    m := map[string]interface{}{
        "filename":     a.Filename,
        "content_type": a.ContentType,
        "created":      a.Created.Format(time.RFC3339Nano),
    }
    if a.Meta != nil {
        b, _ := json.Marshal(a.Meta)
        m["meta"] = string(b)
    }
    _, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
        p.Set(ctx, s.dataKey(id), a.Data, s.ttl)
        p.HSet(ctx, s.metaKey(id), m)
        p.Expire(ctx, s.metaKey(id), s.ttl)
        return nil
    })
    if err != nil { return "", fmt.Errorf("store artifact: %w", err) }
    return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Artifact, error) {
    var (
        data *redis.StringCmd
        meta *redis.MapStringStringCmd
    )
    _, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
        data = p.Get(ctx, s.dataKey(id))
        meta = p.HGetAll(ctx, s.metaKey(id))
        return nil
    })
    if err != nil && !errors.Is(err, redis.Nil) { return Artifact{}, err }

    raw, err := data.Bytes()
    if errors.Is(err, redis.Nil) { return Artifact{}, ErrNotFound }
    if err != nil { return Artifact{}, err }
    res := meta.Val()

    a := Artifact{Filename: res["filename"], ContentType: res["content_type"], Data: raw}
    if v := res["created"]; v != "" {
        if t, err := time.Parse(time.RFC3339Nano, v); err == nil { a.Created = t }
    }
    if v := res["meta"]; v != "" {
        _ = json.Unmarshal([]byte(v), &a.Meta)
    }
    return a, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
    return s.client.Del(ctx, s.dataKey(id), s.metaKey(id)).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.client.Close() }
