package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/config"
)

// Redis stores sessions as JSON values under prefix+address.
type Redis struct {
	conn   *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(cfg config.StoreConfig, ttl time.Duration) *Redis {
	return &Redis{
		conn: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		prefix: cfg.KeyPrefix,
		ttl:    ttl,
	}
}

func (r *Redis) key(address string) string {
	return r.prefix + normalize(address)
}

func (r *Redis) Save(ctx context.Context, rec domain.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return apperror.New(apperror.CodeSessionStoreFailed, apperror.WithCause(err), apperror.WithContext("marshal"))
	}
	if err := r.conn.Set(ctx, r.key(rec.Address), data, r.ttl).Err(); err != nil {
		return apperror.External(apperror.CodeSessionStoreFailed, "redis set", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, address string) (domain.SessionRecord, error) {
	data, err := r.conn.Get(ctx, r.key(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SessionRecord{}, apperror.New(apperror.CodeSessionNotFound, apperror.WithContext(address))
		}
		return domain.SessionRecord{}, apperror.External(apperror.CodeSessionStoreFailed, "redis get", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.SessionRecord{}, apperror.New(apperror.CodeSessionStoreFailed, apperror.WithCause(err), apperror.WithContext("unmarshal"))
	}
	return rec, nil
}

func (r *Redis) Delete(ctx context.Context, address string) error {
	if err := r.conn.Del(ctx, r.key(address)).Err(); err != nil {
		return apperror.External(apperror.CodeSessionStoreFailed, "redis del", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.conn.Ping(ctx).Err(); err != nil {
		return apperror.External(apperror.CodeSessionStoreFailed, "redis ping", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.conn.Close()
}
