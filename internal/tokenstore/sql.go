package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/marketplace-client/pkg/db"
)

type entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey"`
	Value     string    `gorm:"column:entry_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (entry) TableName() string { return "device_kv" }

// SQL persists entries in the device_kv table (sqlite on device, postgres when shared).
type SQL struct {
	client *db.Client
	now    func() time.Time
}

// NewSQL expects the device_kv migration to have been applied.
func NewSQL(client *db.Client) *SQL {
	return &SQL{client: client, now: time.Now}
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var row entry
	err := s.client.DB().WithContext(ctx).Where("entry_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return row.Value, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	row := entry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	err := s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.DB().WithContext(ctx).Where("entry_key IN ?", keys).Delete(&entry{}).Error; err != nil {
		return fmt.Errorf("deleting %v: %w", keys, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.client.Close()
}
