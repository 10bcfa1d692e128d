package kvstore

import (
	"context"
	"errors"

	"pinkbook/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is a single row of the key-value table.
type Entry struct {
	Key   string `gorm:"primaryKey;size:512"`
	Value string `gorm:"type:text"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (Entry) TableName() string { return "kv_entries" }

// GormStore persists entries in a relational database through gorm. SQLite is
// the on-device default; a Postgres DSN is accepted for server deployments.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a SQLite-backed store at path.
func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return newGormStore(db)
}

// OpenPostgres opens a Postgres-backed store with the given DSN.
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return newGormStore(db)
}

// NewGormStore wraps an existing gorm handle, migrating the kv table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	return newGormStore(db)
}

func newGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) (string, error) {
	var entry Entry
	if err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		observability.KVStoreErrors.WithLabelValues("gorm", "get").Inc()
		return "", err
	}
	return entry.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&Entry{Key: key, Value: value}).Error
	if err != nil {
		observability.KVStoreErrors.WithLabelValues("gorm", "set").Inc()
	}
	return err
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error
	if err != nil {
		observability.KVStoreErrors.WithLabelValues("gorm", "delete").Inc()
	}
	return err
}

// Close releases the underlying database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
