package store

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/example/keystore/models"
)

// insertBatchSize keeps each INSERT well under SQLite's bind-variable limit.
const insertBatchSize = 500

// keyRow is the table form of a KeyRecord. Seq keeps insertion order.
type keyRow struct {
	Seq       int     `gorm:"primaryKey;autoIncrement:false"`
	Key       string  `gorm:"index"`
	CreatedAt string  `gorm:"column:created_at;autoCreateTime:false"`
	ExpiresAt string  `gorm:"column:expires_at"`
	IP        *string `gorm:"column:ip"`
	Note      *string `gorm:"column:note"`
}

func (keyRow) TableName() string { return "key_records" }

// SQLiteStore keeps the records in an embedded SQLite database. Save and
// Update rewrite the whole table inside one transaction.
type SQLiteStore struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewSQLiteStore(databaseURL string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open key database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open key database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := db.AutoMigrate(&keyRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate key database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]models.KeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadRows(s.db.WithContext(ctx))
}

func (s *SQLiteStore) Save(ctx context.Context, records []models.KeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveRows(tx, records)
	})
}

func (s *SQLiteStore) Update(ctx context.Context, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		records, err := loadRows(tx)
		if err != nil {
			return err
		}
		next, changed, err := fn(records)
		if err != nil || !changed {
			return err
		}
		return saveRows(tx, next)
	})
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func loadRows(tx *gorm.DB) ([]models.KeyRecord, error) {
	var rows []keyRow
	if err := tx.Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}

	records := make([]models.KeyRecord, len(rows))
	for i, r := range rows {
		records[i] = models.KeyRecord{
			Key:       r.Key,
			CreatedAt: r.CreatedAt,
			ExpiresAt: r.ExpiresAt,
			IP:        r.IP,
			Note:      r.Note,
		}
	}
	return records, nil
}

func saveRows(tx *gorm.DB, records []models.KeyRecord) error {
	if err := tx.Where("1 = 1").Delete(&keyRow{}).Error; err != nil {
		return fmt.Errorf("clear keys: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	rows := make([]keyRow, len(records))
	for i, r := range records {
		rows[i] = keyRow{
			Seq:       i + 1,
			Key:       r.Key,
			CreatedAt: r.CreatedAt,
			ExpiresAt: r.ExpiresAt,
			IP:        r.IP,
			Note:      r.Note,
		}
	}
	if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("save keys: %w", err)
	}
	return nil
}
