package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/groceryscout/backend/internal/domain"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Document kinds stored per account
const (
	KindLists   = "lists"
	KindHistory = "history"
)

// documentRecord is one JSON document of an account
type documentRecord struct {
	ID        uint      `gorm:"primaryKey"`
	AccountID string    `gorm:"size:128;not null;uniqueIndex:idx_account_kind"`
	Kind      string    `gorm:"size:32;not null;uniqueIndex:idx_account_kind"`
	Body      string    `gorm:"type:longtext;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (documentRecord) TableName() string {
	return "account_documents"
}

// MySQLStore keeps each account's lists and history as two JSON documents.
// Writes replace both documents in one transaction.
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore connects to MySQL, configures the pool and migrates the table
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	if dsn == "" {
		return nil, errors.New("mysql dsn is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewMySQLStoreFromDB(db)
}

// NewMySQLStoreFromDB wraps an open gorm connection and migrates the table
func NewMySQLStoreFromDB(db *gorm.DB) (*MySQLStore, error) {
	if err := db.AutoMigrate(&documentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate account_documents: %w", err)
	}
	log.Println("[STORE] MySQL document store initialized")
	return &MySQLStore{db: db}, nil
}

// Get returns the account's snapshot, or nil when the account has no documents
func (s *MySQLStore) Get(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	var records []documentRecord
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return decodeRecords(records)
}

// Put upserts both documents of the account
func (s *MySQLStore) Put(ctx context.Context, accountID string, snapshot *domain.Snapshot) error {
	records, err := encodeRecords(accountID, snapshot)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).Create(&records).Error
	})
}

// Close releases the underlying connection pool
func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func encodeRecords(accountID string, snapshot *domain.Snapshot) ([]documentRecord, error) {
	if snapshot == nil {
		snapshot = domain.NewSnapshot()
	}

	lists, err := json.Marshal(snapshot.Lists)
	if err != nil {
		return nil, fmt.Errorf("encode lists: %w", err)
	}
	history, err := json.Marshal(snapshot.History)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}

	return []documentRecord{
		{AccountID: accountID, Kind: KindLists, Body: string(lists)},
		{AccountID: accountID, Kind: KindHistory, Body: string(history)},
	}, nil
}

func decodeRecords(records []documentRecord) (*domain.Snapshot, error) {
	snapshot := &domain.Snapshot{}
	for _, r := range records {
		switch r.Kind {
		case KindLists:
			if err := json.Unmarshal([]byte(r.Body), &snapshot.Lists); err != nil {
				return nil, fmt.Errorf("decode lists: %w", err)
			}
		case KindHistory:
			if err := json.Unmarshal([]byte(r.Body), &snapshot.History); err != nil {
				return nil, fmt.Errorf("decode history: %w", err)
			}
		default:
			log.Printf("[STORE] Ignoring unknown document kind %q for account %s", r.Kind, r.AccountID)
		}
	}
	return snapshot.Normalize(), nil
}
