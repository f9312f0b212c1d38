package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"twscraper/pkg/errors"
	"twscraper/pkg/logger"
	"twscraper/pkg/models"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS tweets (
	status_id INTEGER PRIMARY KEY,
	timestamp DATE,
	user TEXT,
	text TEXT
)`

	postgresSchema = `CREATE TABLE IF NOT EXISTS tweets (
	status_id BIGINT PRIMARY KEY,
	"timestamp" TIMESTAMPTZ,
	"user" TEXT,
	text TEXT
)`
)

// Store is the durable post archive
type Store struct {
	db       *gorm.DB
	location string
	postgres bool
	logger   logger.Logger
}

// IsPostgres reports whether location is a PostgreSQL URL rather than a file path
func IsPostgres(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

// DisplayLocation returns location as it is shown to the user: an absolute file
// path, or the URL with its password redacted
func DisplayLocation(location string) string {
	if IsPostgres(location) {
		u, err := url.Parse(location)
		if err != nil {
			return "postgres://(unparseable)"
		}
		return u.Redacted()
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return location
	}
	return abs
}

// Open opens the store at location. A SQLite file is created when absent; its
// directory must exist.
func Open(ctx context.Context, location string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Store{
		location: DisplayLocation(location),
		postgres: IsPostgres(location),
		logger:   log,
	}

	var dialector gorm.Dialector
	if s.postgres {
		dialector = postgres.Open(location)
	} else {
		dialector = sqlite.Open(s.location)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.NewStorageError("open store", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.NewStorageError("open store", fmt.Errorf("failed to get underlying *sql.DB: %w", err))
	}
	// one run, one connection
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.NewStorageError("open store", err)
	}

	s.db = db
	log.DebugWithFields("store opened", map[string]interface{}{
		"location": s.location,
		"postgres": s.postgres,
	})
	return s, nil
}

// EnsureSchema creates the tweets table when it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := sqliteSchema
	if s.postgres {
		ddl = postgresSchema
	}

	if err := s.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		return errors.NewStorageError("ensure schema", err)
	}
	return nil
}

// MinKnownID returns the smallest stored id for author; found is false when
// the author has no rows
func (s *Store) MinKnownID(ctx context.Context, author string) (int64, bool, error) {
	var minID sql.NullInt64

	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("MIN(status_id)").
		Where(clause.Eq{Column: clause.Column{Name: "user"}, Value: author}).
		Row().
		Scan(&minID)
	if err != nil {
		return 0, false, errors.NewStorageError("min known id", err)
	}

	if !minID.Valid {
		return 0, false, nil
	}
	return minID.Int64, true, nil
}

// archiveRow is the SQLite form of models.Post with the timestamp as
// "YYYY-MM-DD HH:MM:SS" text
type archiveRow struct {
	ID        int64  `gorm:"column:status_id;primaryKey;autoIncrement:false"`
	Timestamp string `gorm:"column:timestamp"`
	Author    string `gorm:"column:user"`
	Text      string `gorm:"column:text"`
}

func (archiveRow) TableName() string {
	return "tweets"
}

// InsertIfAbsent stores post unless its id is already present. Existing rows are
// never overwritten. Each call commits on its own.
func (s *Store) InsertIfAbsent(ctx context.Context, post models.Post) (bool, error) {
	var row interface{} = &post
	if !s.postgres {
		row = &archiveRow{
			ID:        post.ID,
			Timestamp: post.Timestamp.UTC().Format(models.StoredTimeLayout),
			Author:    post.Author,
			Text:      post.Text,
		}
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "status_id"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return false, errors.NewStorageError("insert post", result.Error)
	}

	inserted := result.RowsAffected > 0
	if !inserted {
		s.logger.DebugWithFields("post already stored", map[string]interface{}{
			"status_id": post.ID,
		})
	}
	return inserted, nil
}

// Count returns the number of stored posts
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, errors.NewStorageError("count posts", err)
	}
	return n, nil
}

// Location returns the display form of the store location
func (s *Store) Location() string {
	return s.location
}

// Close releases the connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.NewStorageError("close store", err)
	}
	if err := sqlDB.Close(); err != nil {
		return errors.NewStorageError("close store", err)
	}
	return nil
}
