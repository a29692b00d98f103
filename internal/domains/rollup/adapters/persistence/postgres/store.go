package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/northmart/go-order-processing/internal/domains/rollup/domain"
	"github.com/northmart/go-order-processing/internal/domains/rollup/ports"
)

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore persists rollup generations. A publish inserts the new
// generation's rows, flips the single active-generation pointer, and prunes
// superseded generations, all in one transaction: readers resolve the pointer
// first and therefore never see a half-built generation.
type SnapshotStore struct {
	db *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

type generationRecord struct {
	ID          uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	WindowStart time.Time `gorm:"column:window_start"`
	WindowEnd   time.Time `gorm:"column:window_end"`
	BuiltAt     time.Time `gorm:"column:built_at"`
}

func (generationRecord) TableName() string { return "rollup_generations" }

type dailyRecord struct {
	ID            int64           `gorm:"primaryKey;autoIncrement;column:id"`
	GenerationID  uuid.UUID       `gorm:"column:generation_id;type:uuid;index"`
	Day           time.Time       `gorm:"column:day"`
	GrossValue    decimal.Decimal `gorm:"column:gross_value;type:numeric(14,2)"`
	OrderCount    int64           `gorm:"column:order_count"`
	CustomerCount int64           `gorm:"column:customer_count"`
	AverageTicket decimal.Decimal `gorm:"column:average_ticket;type:numeric(14,2)"`
}

func (dailyRecord) TableName() string { return "rollup_daily" }

type categoryRecord struct {
	ID            int64           `gorm:"primaryKey;autoIncrement;column:id"`
	GenerationID  uuid.UUID       `gorm:"column:generation_id;type:uuid;index"`
	CategoryID    *int64          `gorm:"column:category_id"`
	CategoryName  string          `gorm:"column:category_name"`
	GrossValue    decimal.Decimal `gorm:"column:gross_value;type:numeric(14,2)"`
	OrderCount    int64           `gorm:"column:order_count"`
	CustomerCount int64           `gorm:"column:customer_count"`
	AverageTicket decimal.Decimal `gorm:"column:average_ticket;type:numeric(14,2)"`
}

func (categoryRecord) TableName() string { return "rollup_category" }

// activeRecord is the single-row pointer to the generation readers use.
type activeRecord struct {
	ID           int32     `gorm:"primaryKey;column:id"`
	GenerationID uuid.UUID `gorm:"column:generation_id;type:uuid"`
}

func (activeRecord) TableName() string { return "rollup_active" }

func (s *SnapshotStore) Publish(ctx context.Context, snapshot *domain.Snapshot) error {
	if s == nil || s.db == nil {
		return errors.New("postgres snapshot store not configured")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		generation := generationRecord{
			ID:          snapshot.Generation,
			WindowStart: snapshot.WindowStart,
			WindowEnd:   snapshot.WindowEnd,
			BuiltAt:     snapshot.BuiltAt,
		}
		if err := tx.Create(&generation).Error; err != nil {
			return err
		}
		if len(snapshot.Daily) > 0 {
			daily := make([]dailyRecord, 0, len(snapshot.Daily))
			for _, row := range snapshot.Daily {
				daily = append(daily, dailyRecord{
					GenerationID:  snapshot.Generation,
					Day:           row.Day,
					GrossValue:    row.GrossValue,
					OrderCount:    row.OrderCount,
					CustomerCount: row.CustomerCount,
					AverageTicket: row.AverageTicket,
				})
			}
			if err := tx.Create(&daily).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Categories) > 0 {
			categories := make([]categoryRecord, 0, len(snapshot.Categories))
			for _, row := range snapshot.Categories {
				categories = append(categories, categoryRecord{
					GenerationID:  snapshot.Generation,
					CategoryID:    row.CategoryID,
					CategoryName:  row.CategoryName,
					GrossValue:    row.GrossValue,
					OrderCount:    row.OrderCount,
					CustomerCount: row.CustomerCount,
					AverageTicket: row.AverageTicket,
				})
			}
			if err := tx.Create(&categories).Error; err != nil {
				return err
			}
		}
		active := activeRecord{ID: 1, GenerationID: snapshot.Generation}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"generation_id"}),
		}).Create(&active).Error; err != nil {
			return err
		}
		// Prune superseded generations and their rows.
		if err := tx.Where("generation_id <> ?", snapshot.Generation).Delete(&dailyRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("generation_id <> ?", snapshot.Generation).Delete(&categoryRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id <> ?", snapshot.Generation).Delete(&generationRecord{}).Error
	})
}

func (s *SnapshotStore) Current(ctx context.Context) (*domain.Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres snapshot store not configured")
	}
	var active activeRecord
	if err := s.db.WithContext(ctx).First(&active, "id = 1").Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNoSnapshot
		}
		return nil, err
	}
	var generation generationRecord
	if err := s.db.WithContext(ctx).First(&generation, "id = ?", active.GenerationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNoSnapshot
		}
		return nil, err
	}
	snapshot := &domain.Snapshot{
		Generation:  generation.ID,
		WindowStart: generation.WindowStart,
		WindowEnd:   generation.WindowEnd,
		BuiltAt:     generation.BuiltAt,
	}
	var daily []dailyRecord
	if err := s.db.WithContext(ctx).Where("generation_id = ?", generation.ID).Order("day ASC").Find(&daily).Error; err != nil {
		return nil, err
	}
	for _, row := range daily {
		snapshot.Daily = append(snapshot.Daily, domain.DailyRollup{
			Day: row.Day,
			Totals: domain.Totals{
				GrossValue:    row.GrossValue,
				OrderCount:    row.OrderCount,
				CustomerCount: row.CustomerCount,
				AverageTicket: row.AverageTicket,
			},
		})
	}
	var categories []categoryRecord
	if err := s.db.WithContext(ctx).Where("generation_id = ?", generation.ID).Order("category_name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	for _, row := range categories {
		snapshot.Categories = append(snapshot.Categories, domain.CategoryRollup{
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			Totals: domain.Totals{
				GrossValue:    row.GrossValue,
				OrderCount:    row.OrderCount,
				CustomerCount: row.CustomerCount,
				AverageTicket: row.AverageTicket,
			},
		})
	}
	return snapshot, nil
}
