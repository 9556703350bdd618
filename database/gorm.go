package database

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/sahilchouksey/learnhub/config"
	"github.com/sahilchouksey/learnhub/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Tables owned by each service. A service only ever migrates its own set.
var (
	UserModels        = []interface{}{&model.User{}}
	LessonModels      = []interface{}{&model.Lesson{}, &model.Enrollment{}, &model.Completion{}}
	AchievementModels = []interface{}{
		&model.Achievement{},
		&model.UserAchievement{},
		&model.UserStats{},
		&model.EventLog{},
		&model.CronJobLog{},
	}
)

// Storage is what the HTTP layer needs from the store
type Storage interface {
	DB() *gorm.DB
	HealthCheck() error
	Close() error
}

type GORMStore struct {
	db *gorm.DB
}

// StartGORM opens DATABASE_URL. Postgres URLs and key/value DSNs use the pgx driver;
// "sqlite:" or "file:" DSNs open SQLite for local runs.
func StartGORM(env *config.EnvironmentVariable) (*GORMStore, error) {
	if env.DATABASE_URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if env.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	dialector, name := dialectorFor(env.DATABASE_URL)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		PrepareStmt:    true,
	})
	if err != nil {
		log.Printf("Unable to connect to %s with GORM: %v", name, err)
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Printf("Successfully connected to %s Database with GORM.", name)

	return &GORMStore{db: db}, nil
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

func dialectorFor(dsn string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:")), "SQLite"
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), "SQLite"
	default:
		return postgres.Open(dsn), "PostgreSQL"
	}
}

// Init runs AutoMigrate for the given models
func (s *GORMStore) Init(models ...interface{}) error {
	log.Printf("Running GORM AutoMigrate for %d models...", len(models))

	if err := s.db.AutoMigrate(models...); err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
