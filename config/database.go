package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ConnectDB initializes the database connection with retry logic
func ConnectDB(log *zap.Logger) error {
	if err := validateTestEnvironment(log); err != nil {
		return err
	}

	gormLogger := logger.Default.LogMode(logger.Info)
	if Config.Server.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	dsn := Config.Database.GetDatabaseDSN()

	var db *gorm.DB
	var err error
	maxAttempts := 10
	retryInterval := 3 * time.Second

	log.Info("connecting to database",
		zap.String("host", Config.Database.Host),
		zap.String("database", Config.Database.Name),
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger,
			// Driver errors are translated so duplicate keys surface as
			// gorm.ErrDuplicatedKey.
			TranslateError: true,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})

		if err == nil {
			err = ping(db)
			if err == nil {
				break
			}
		}

		if attempt < maxAttempts {
			log.Warn("database not ready",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("retry_in", retryInterval),
				zap.Error(err),
			)
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to connect to database after %d attempts: %w", maxAttempts, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(Config.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(Config.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(Config.Database.ConnMaxLifetime)

	DB = db
	log.Info("database connected",
		zap.String("host", Config.Database.Host+":"+Config.Database.Port),
		zap.String("database", Config.Database.Name),
	)

	return nil
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// validateTestEnvironment ensures test databases are properly configured
func validateTestEnvironment(log *zap.Logger) error {
	if Config.Server.IsTest() {
		if !strings.HasSuffix(Config.Database.Name, "_test") {
			return fmt.Errorf(
				"APP_ENV=test but DB_NAME (%s) is not a test database. "+
					"Test database names must end with '_test'",
				Config.Database.Name,
			)
		}
	}

	if !Config.Server.IsProduction() {
		for _, indicator := range []string{"prod", "production"} {
			if strings.Contains(strings.ToLower(Config.Database.Name), indicator) {
				log.Warn("using production-like database name outside production",
					zap.String("database", Config.Database.Name),
					zap.String("env", Config.Server.Env),
				)
				break
			}
		}
	}

	return nil
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// HealthCheck checks if the database is accessible
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := ping(DB); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// TruncateAllTables truncates all tables (for testing only)
func TruncateAllTables() error {
	if !Config.Server.IsTest() {
		return fmt.Errorf("truncate operation only allowed in test environment")
	}

	for _, table := range []string{"users"} {
		if err := DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}
