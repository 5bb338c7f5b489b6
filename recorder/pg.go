package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/imkonsowa/paragourmet/models"
)

type Pg struct {
	db *gorm.DB
}

func NewPg(connString string) (*Pg, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)

	db, err := gorm.Open(postgres.Open(connString), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	return &Pg{db: db}, nil
}

// Migrate makes sure PostGIS and the suggestions table exist.
func (p *Pg) Migrate(ctx context.Context) error {
	if err := p.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return errors.Wrap(err, "enable postgis")
	}

	if err := p.db.WithContext(ctx).AutoMigrate(&models.SuggestionRecord{}); err != nil {
		return errors.Wrap(err, "migrate suggestions")
	}

	return nil
}

// SaveSuggestion inserts record; a redelivered event with a known request id
// is ignored.
func (p *Pg) SaveSuggestion(ctx context.Context, record *models.SuggestionRecord) error {
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "request_id"}}, DoNothing: true}).
		Create(record).Error
	if err != nil {
		return errors.Wrapf(err, "insert suggestion %s", record.RequestID)
	}

	return nil
}
