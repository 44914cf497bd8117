// Package repository provides methods to work with DB
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/DavidRambo/image-microservice/internal/repository/imgsql"
	"github.com/DavidRambo/image-microservice/internal/repository/migrations"
	_ "github.com/lib/pq"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	_ "modernc.org/sqlite"
)

const defaultSQLitePath = "database.db"

type ImageRepo interface {
	Insert(ctx context.Context, n *model.Image) error
	Delete(ctx context.Context, id int64) (bool, error)
	FindByID(ctx context.Context, id int64) (*model.Image, error)
	FindStarredByAlbum(ctx context.Context, album int64) (*model.Image, error)
	FindByAlbum(ctx context.Context, album int64, limit, offset int) ([]model.Image, error)
	UpdateStarred(ctx context.Context, id int64, starred bool) (*model.Image, error)
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewImageRepo(dbconn *dbpg.DB, dialect imgsql.Dialect) ImageRepo {
	return imgsql.SQLRepo{DB: dbconn, Dialect: dialect}
}

// DialectFromConfig reads DB_DRIVER; SQLite when unset
func DialectFromConfig(appConfig *config.Config) (imgsql.Dialect, error) {
	switch d := appConfig.GetString("DB_DRIVER"); d {
	case "", string(imgsql.SQLite):
		return imgsql.SQLite, nil
	case string(imgsql.Postgres):
		return imgsql.Postgres, nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", d)
	}
}

func ConnectWithRetries(appConfig *config.Config, dialect imgsql.Dialect, retryCount int, idleTime time.Duration) *dbpg.DB {
	var dbConn *dbpg.DB
	var err error

	for range retryCount {
		dbConn, err = connect(appConfig, dialect)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to %s: %s\nWaiting %v before next retry...", dialect, err, idleTime)
		time.Sleep(idleTime)
	}

	if err != nil {
		log.Fatal("Failed to connect to DB. Exiting the app...")
	}

	return dbConn
}

func connect(appConfig *config.Config, dialect imgsql.Dialect) (*dbpg.DB, error) {
	switch dialect {
	case imgsql.Postgres:
		dbOptions := dbpg.Options{
			MaxOpenConns:    5,
			MaxIdleConns:    5,
			ConnMaxLifetime: 10 * time.Minute,
		}
		return dbpg.New(appConfig.GetString("POSTGRES_DSN"), nil, &dbOptions)
	default:
		path := appConfig.GetString("SQLITE_PATH")
		if path == "" {
			path = defaultSQLitePath
		}
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return &dbpg.DB{Master: db}, nil
	}
}

// OpenSQLite opens the database file with the pragmas the service relies on.
// SQLite has a single writer anyway, so the pool is limited to one connection.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	return db, nil
}

func MigrateWithRetries(db *sql.DB, dialect imgsql.Dialect, retries int, idle time.Duration) {
	for i := range retries {
		log.Printf("Migration try #%d...", i)
		err := migrations.Run(db, string(dialect))
		if err == nil {
			log.Println("Database migrations applied successfully")
			return
		}
		log.Printf("Migration try #%d was unsuccessful: %v. Waiting %v before next try...", i, err, idle)
		time.Sleep(idle)
	}
	log.Fatalln("Out of retries. Exiting...")
}
