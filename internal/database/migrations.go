package database

import (
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// noteV1 is the notes table as first shipped, before delivery failure counters.
type noteV1 struct {
	ID              uint   `gorm:"primaryKey"`
	OwnerID         string `gorm:"index;not null"`
	Text            string `gorm:"type:text;not null"`
	Category        string `gorm:"index"`
	DueDate         string `gorm:"size:10;not null"`
	DueTime         string `gorm:"size:5;not null"`
	Reminder24hSent bool   `gorm:"column:reminder_24h_sent;not null;default:false"`
	Reminder1hSent  bool   `gorm:"column:reminder_1h_sent;not null;default:false"`
	Completed       bool   `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (noteV1) TableName() string { return "notes" }

// noteV2 holds the delivery failure counters added in 002.
type noteV2 struct {
	Reminder24hFailures int `gorm:"column:reminder_24h_failures;not null;default:0"`
	Reminder1hFailures  int `gorm:"column:reminder_1h_failures;not null;default:0"`
}

func (noteV2) TableName() string { return "notes" }

var failureColumns = []string{"reminder_24h_failures", "reminder_1h_failures"}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_notes",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&noteV1{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("notes")
			},
		},
		{
			ID: "002_reminder_failures",
			Migrate: func(tx *gorm.DB) error {
				for _, column := range failureColumns {
					if tx.Migrator().HasColumn(&noteV2{}, column) {
						continue
					}
					if err := tx.Migrator().AddColumn(&noteV2{}, column); err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				for _, column := range failureColumns {
					if err := tx.Migrator().DropColumn(&noteV2{}, column); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			ID: "003_notes_due_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_notes_owner_due ON notes (owner_id, due_date, due_time)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_notes_owner_due").Error
			},
		},
	}
}

// Migrate applies all pending schema migrations.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// RollbackLast reverts the most recently applied migration.
func RollbackLast(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	if err := m.RollbackLast(); err != nil {
		return fmt.Errorf("database: rollback: %w", err)
	}
	return nil
}
