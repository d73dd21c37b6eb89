package engine

import (
	"context"
	"sort"
	"strings"

	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every slot key, e.g. "certify-one:".
	Prefix string
}

// RedisSlots keeps each slot as a plain Redis string key.
type RedisSlots struct {
	client *redis.Client
	prefix string
}

func NewRedisSlots(ctx context.Context, opts RedisOptions) (*RedisSlots, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", opts.Addr)
	}
	return &RedisSlots{client: client, prefix: opts.Prefix}, nil
}

func (r *RedisSlots) key(name string) string {
	return r.prefix + name
}

func (r *RedisSlots) Save(ctx context.Context, name string, data []byte) error {
	if err := r.client.Set(ctx, r.key(name), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "set slot %s", name)
	}
	return nil
}

func (r *RedisSlots) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, pkgengine.ErrSlotNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get slot %s", name)
	}
	return data, nil
}

func (r *RedisSlots) Remove(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, r.key(name)).Err(); err != nil {
		return errors.Wrapf(err, "del slot %s", name)
	}
	return nil
}

func (r *RedisSlots) Names(ctx context.Context) ([]string, error) {
	var names []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "scan slots")
	}
	sort.Strings(names)
	return names, nil
}

func (r *RedisSlots) Close() error {
	return r.client.Close()
}
