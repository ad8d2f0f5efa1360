package gorm

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB struct - Holds the PostgreSQL connection for the order records
type DB struct {
	Postgres *gorm.DB
}

// ConnectToPostgreSQL func - Opens the order database connection
func ConnectToPostgreSQL(host, port, username, pass, dbname string, sslmode bool) (*DB, error) {
	if host == "" || port == "" || dbname == "" {
		return nil, errors.New("postgres host, port and database are required")
	}

	mode := "disable"
	if sslmode {
		mode = "require"
	}
	connectionStr := fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=%v connect_timeout=0",
		host, username, pass, dbname, port, mode)

	pg, err := gorm.Open(postgres.Open(connectionStr), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		logrus.Error(err)
		return nil, err
	}

	sqlDB, err := pg.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(2 * time.Hour)

	logrus.Infof("Connected to postgres at %s:%s/%s", host, port, dbname)

	return &DB{Postgres: pg}, nil
}

// DisconnectPostgres func - Closes the order database connection
func DisconnectPostgres(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.Error(err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.Error(err)
		return
	}
	logrus.Println("Connection with postgres has closed")
}
