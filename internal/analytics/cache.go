package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda resultados de agregação por um TTL curto. Injetado no service;
// a implementação padrão usa redis e a Nop desliga o cache.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

type nopCache struct{}

func NewNopCache() Cache {
	return nopCache{}
}

func (nopCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

func (nopCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

// cacheKey normaliza os filtros (ordenados, independentes da ordem de
// declaração) para que consultas equivalentes compartilhem a mesma entrada.
func cacheKey(prefix string, f Filtros) string {
	anos := append([]int(nil), f.Anos...)
	sort.Ints(anos)
	meses := append([]int(nil), f.Meses...)
	sort.Ints(meses)
	marcas := append([]string(nil), f.Marcas...)
	sort.Strings(marcas)
	clientes := append([]string(nil), f.Clientes...)
	sort.Strings(clientes)

	return fmt.Sprintf("analytics:%s:a=%s;m=%s;b=%s;c=%s",
		prefix,
		joinInts(anos),
		joinInts(meses),
		strings.Join(marcas, ","),
		strings.Join(clientes, ","),
	)
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ",")
}
