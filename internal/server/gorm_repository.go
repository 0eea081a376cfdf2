package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type appStateRecord struct {
	Username  string    `gorm:"column:username;primaryKey"`
	State     string    `gorm:"column:state;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (appStateRecord) TableName() string {
	return "app_state"
}

// GormRepository stores rows in an app_state table.
// The table is not created on demand; call Migrate or provision it beforehand.
type GormRepository struct {
	db *gorm.DB
}

// OpenGorm connects to a postgres or sqlite database.
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}
	return conn, nil
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates the app_state table.
func (g *GormRepository) Migrate(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(&appStateRecord{})
}

func (g *GormRepository) Get(ctx context.Context, username string) (Row, error) {
	var rec appStateRecord
	err := g.db.WithContext(ctx).Where("username = ?", username).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Row{}, ErrNotFound
	}
	if err != nil {
		return Row{}, fmt.Errorf("query app_state: %w", err)
	}
	return Row{
		Username:  rec.Username,
		State:     []byte(rec.State),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}, nil
}

func (g *GormRepository) Upsert(ctx context.Context, row Row) error {
	rec := appStateRecord{
		Username:  row.Username,
		State:     string(row.State),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("upsert app_state: %w", err)
	}
	return nil
}
