package store

import (
	"context"
	"time"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/cache"
)

// Memory keeps sessions in a TTL cache.
type Memory struct {
	records *cache.Cache[string, domain.SessionRecord]
	ttl     time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		records: cache.New[string, domain.SessionRecord](time.Minute),
		ttl:     ttl,
	}
}

func (m *Memory) Save(ctx context.Context, rec domain.SessionRecord) error {
	m.records.Set(ctx, normalize(rec.Address), rec, m.ttl)
	return nil
}

func (m *Memory) Get(ctx context.Context, address string) (domain.SessionRecord, error) {
	rec, ok := m.records.Get(ctx, normalize(address))
	if !ok {
		return domain.SessionRecord{}, apperror.New(apperror.CodeSessionNotFound, apperror.WithContext(address))
	}
	return rec, nil
}

func (m *Memory) Delete(ctx context.Context, address string) error {
	m.records.Delete(ctx, normalize(address))
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.records.Close()
	return nil
}
