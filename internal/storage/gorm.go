// internal/storage/gorm.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront/internal/models"
)

// GormStore persists a session namespace in the storefront_storage table.
type GormStore struct {
	db        *gorm.DB
	namespace string
}

func NewGormStore(db *gorm.DB, namespace string) *GormStore {
	return &GormStore{db: db, namespace: namespace}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.StorageEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", s.namespace, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return entry.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	entry := models.StorageEntry{
		Namespace: s.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", s.namespace, key).
		Delete(&models.StorageEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

type GormProvider struct {
	db *gorm.DB
}

func NewGormProvider(db *gorm.DB) *GormProvider {
	return &GormProvider{db: db}
}

func (p *GormProvider) Open(namespace string) Store {
	return NewGormStore(p.db, namespace)
}

// PurgeBefore drops every entry that has not been written since cutoff.
func (p *GormProvider) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := p.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&models.StorageEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge storage: %w", result.Error)
	}
	return result.RowsAffected, nil
}
