package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type credential struct {
	Name      string `gorm:"primaryKey"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (credential) TableName() string { return "credentials" }

// SQLite stores the credential as a row of a key/value table.
type SQLite struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open credentials db: %w", err)
	}
	return NewSQLite(db)
}

func NewSQLite(db *gorm.DB) (*SQLite, error) {
	if err := db.AutoMigrate(&credential{}); err != nil {
		return nil, fmt.Errorf("migrate credentials: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(token string) error {
	if token == "" {
		return s.Remove()
	}
	return s.db.Save(&credential{Name: Key, Value: token}).Error
}

func (s *SQLite) Get() (string, bool) {
	var c credential
	err := s.db.Take(&c, "name = ?", Key).Error
	if err != nil {
		return "", false
	}
	return c.Value, c.Value != ""
}

func (s *SQLite) Remove() error {
	err := s.db.Delete(&credential{}, "name = ?", Key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (s *SQLite) Has() bool {
	_, ok := s.Get()
	return ok
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
