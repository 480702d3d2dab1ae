package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cartDocument is one persisted cart.
type cartDocument struct {
	Key       string `gorm:"column:cart_key;primaryKey;size:255"`
	Body      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (cartDocument) TableName() string { return "cart_documents" }

// SQL stores carts in the cart_documents table through gorm.
// The table is keyed by cart_key and holds the raw document in body.
type SQL struct {
	db *gorm.DB
}

// NewSQL opens a Postgres connection pool for databaseURL, verifies it and
// migrates the cart_documents table.
func NewSQL(ctx context.Context, databaseURL string) (*SQL, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is required")
	}
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return NewSQLFromDB(ctx, db)
}

// NewSQLFromDB wraps an open gorm handle and migrates the cart_documents table.
func NewSQLFromDB(ctx context.Context, db *gorm.DB) (*SQL, error) {
	if err := db.WithContext(ctx).AutoMigrate(&cartDocument{}); err != nil {
		return nil, fmt.Errorf("migrate cart_documents: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var doc cartDocument
	err := s.db.WithContext(ctx).Where("cart_key = ?", key).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select cart document: %w", err)
	}
	return doc.Body, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	doc := cartDocument{Key: key, Body: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("upsert cart document: %w", err)
	}
	return nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
