package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anonto42/kdiary/backend/internal/migrations"
	"github.com/anonto42/kdiary/backend/pkg/logger"
)

// DB holds the connections opened for the configured backend. Only the
// selected store is connected; Redis is optional.
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	MongoDB  *mongo.Database
	Redis    *redis.Client

	log logger.Logger
}

// InitDB initializes the connections the configuration asks for
func InitDB(ctx context.Context, cfg *Config, log logger.Logger) (*DB, error) {
	db := &DB{log: log.WithComponent("database")}

	switch cfg.Store.Backend {
	case BackendPostgres:
		postgresDB, err := initPostgres(cfg.Postgres.ConnStr, db.log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		db.Postgres = postgresDB

		if cfg.Postgres.AutoMigrate {
			sqlDB, err := postgresDB.DB()
			if err != nil {
				return nil, err
			}
			if err := migrations.Up(ctx, sqlDB); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			db.log.Info("Migrations applied")
		}
	case BackendMongo:
		mongoClient, err := initMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db.Mongo = mongoClient
		db.MongoDB = mongoClient.Database(cfg.Mongo.Database)
		db.log.Info("Successfully connected to MongoDB!", "database", cfg.Mongo.Database)
	}

	if cfg.Redis.Addr != "" {
		redisClient, err := initRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		db.Redis = redisClient
		db.log.Info("Successfully connected to Redis!", "addr", cfg.Redis.Addr)
	}

	return db, nil
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string, log logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: gormlogger.NewSlogLogger(log.Slog(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	log.Info("Successfully connected to PostgreSQL!")
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

func initRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			db.log.Error("Error getting SQL DB from GORM", "error", err)
		} else if err := sqlDB.Close(); err != nil {
			db.log.Error("Error closing PostgreSQL connection", "error", err)
		} else {
			db.log.Info("PostgreSQL connection closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.log.Error("Error closing MongoDB connection", "error", err)
		} else {
			db.log.Info("MongoDB connection closed.")
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			db.log.Error("Error closing Redis connection", "error", err)
		} else {
			db.log.Info("Redis connection closed.")
		}
	}
}
