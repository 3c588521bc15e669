package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"onlearn-client/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tokenKey = "auth_token"

// LocalSetting is one key/value row of the client's persisted local storage.
type LocalSetting struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type tokenStore struct {
	db *gorm.DB
}

// NewTokenStore keeps the bearer token in the local sqlite store.
func NewTokenStore(db *gorm.DB) (domain.TokenStore, error) {
	if err := db.AutoMigrate(&LocalSetting{}); err != nil {
		return nil, err
	}
	return &tokenStore{db}, nil
}

func (s *tokenStore) Token(ctx context.Context) (string, error) {
	var row LocalSetting
	err := s.db.WithContext(ctx).Where("name = ?", tokenKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return row.Value, err
}

func (s *tokenStore) SaveToken(ctx context.Context, token string) error {
	row := LocalSetting{Name: tokenKey, Value: token}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (s *tokenStore) ClearToken(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("name = ?", tokenKey).Delete(&LocalSetting{}).Error
}

// MemoryTokenStore is a process-local TokenStore.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (m *MemoryTokenStore) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryTokenStore) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) ClearToken(context.Context) error {
	return m.SaveToken(context.Background(), "")
}
