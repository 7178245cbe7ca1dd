package store

import (
	"context"
	"time"

	"github.com/smallbiznis/cyberdesk/internal/clock"
	"github.com/smallbiznis/cyberdesk/pkg/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record is one persisted collection.
type Record struct {
	Key       string            `gorm:"primaryKey;column:record_key;size:191"`
	Payload   []byte            `gorm:"column:payload;not null"`
	Meta      datatypes.JSONMap `gorm:"column:meta"`
	UpdatedAt time.Time         `gorm:"column:updated_at;not null"`
}

func (Record) TableName() string { return "kv_records" }

// GormKV keeps collections in a single relational table.
type GormKV struct {
	repo      repository.Repository[Record]
	clock     clock.Clock
	namespace string
}

func NewGormKV(db *gorm.DB, clk clock.Clock, namespace string) *GormKV {
	return &GormKV{
		repo:      repository.ProvideStore[Record](db),
		clock:     clk,
		namespace: namespace,
	}
}

func (s *GormKV) Get(ctx context.Context, key string) ([]byte, error) {
	fullKey, err := namespaced(s.namespace, key)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindOne(ctx, &Record{Key: fullKey})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record.Payload, nil
}

func (s *GormKV) Put(ctx context.Context, key string, value []byte, meta Meta) error {
	fullKey, err := namespaced(s.namespace, key)
	if err != nil {
		return err
	}
	return s.repo.Upsert(ctx, &Record{
		Key:       fullKey,
		Payload:   value,
		Meta:      datatypes.JSONMap(meta),
		UpdatedAt: s.clock.Now().UTC(),
	}, "record_key")
}
