package database

import (
	"fmt"
	"strings"
	"time"

	"sports-meetup/internal/config"
	"sports-meetup/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open establishes a connection using the configured driver. The caller owns the
// returned handle and must release it with Close.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.Database.SqlitePath))
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying DB connection")
	}

	if cfg.Database.Driver == "sqlite" {
		// sqlite has no row locks; one connection serializes every transaction
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info().Str("driver", cfg.Database.Driver).Msg("Database connection established")
	return db, nil
}

// SQLiteDSN builds a pure-Go sqlite DSN with foreign keys enforced
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
}

// Close releases the connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying DB connection")
	}
	return sqlDB.Close()
}

// Migrate creates the enum domains, tables and constraints
func Migrate(db *gorm.DB) error {
	isPostgres := db.Dialector.Name() == "postgres"

	if isPostgres {
		for _, stmt := range enumStatements() {
			if err := db.Exec(stmt).Error; err != nil {
				return errors.Wrap(err, "failed to create enum type")
			}
		}
	}

	// Parents before children so constraints resolve
	schema := []interface{}{
		&models.Venue{},
		&models.User{},
		&models.AllowedPair{},
		&models.Event{},
		&models.Participant{},
		&models.ChatChannel{},
		&models.ChatMessage{},
	}

	for _, model := range schema {
		if err := db.AutoMigrate(model); err != nil {
			return errors.Wrapf(err, "failed to migrate %T", model)
		}
	}

	if isPostgres {
		if err := db.Exec(allowedPairConstraint).Error; err != nil {
			return errors.Wrap(err, "failed to add allowed pair constraint")
		}
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}

func enumStatements() []string {
	sports := make([]string, 0, len(models.Sports))
	for _, s := range models.Sports {
		sports = append(sports, string(s))
	}
	statuses := []string{
		string(models.EventStatusOpen),
		string(models.EventStatusFull),
		string(models.EventStatusCancelled),
		string(models.EventStatusClosed),
	}

	return []string{
		createEnum("sport_type", sports),
		createEnum("event_status", statuses),
	}
}

func createEnum(name string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return fmt.Sprintf(
		"DO $$ BEGIN CREATE TYPE %s AS ENUM (%s); EXCEPTION WHEN duplicate_object THEN NULL; END $$;",
		name, strings.Join(quoted, ", "),
	)
}

// The (sport, venue) whitelist is enforced by the store on Postgres as well as by the service
const allowedPairConstraint = `DO $$ BEGIN
	ALTER TABLE events ADD CONSTRAINT fk_events_allowed_pair
		FOREIGN KEY (sport, venue_id) REFERENCES allowed_pairs (sport, venue_id)
		ON UPDATE CASCADE ON DELETE RESTRICT;
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;`
