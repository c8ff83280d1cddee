package retriever

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache кэширует результаты поиска в Redis.
// namespace меняется при пересборке индекса, старые ключи просто истекают.
type RedisCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration, namespace string) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{rdb: rdb, ttl: ttl, namespace: namespace}
}

// DialRedis подключается по URL вида redis://host:6379/0 и проверяет соединение
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func (c *RedisCache) key(query string, topK int) string {
	hash := sha256.Sum256([]byte(query + "\x00" + strconv.Itoa(topK)))
	return "feedback_rag:search:" + c.namespace + ":" + hex.EncodeToString(hash[:16])
}

func (c *RedisCache) Get(ctx context.Context, query string, topK int) (Result, bool, error) {
	data, err := c.rdb.Get(ctx, c.key(query, topK)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}

	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	if r.Documents == nil {
		r.Documents = []string{}
	}
	return r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, query string, topK int, r Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(query, topK), data, c.ttl).Err()
}
