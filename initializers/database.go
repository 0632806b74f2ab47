package initializers

import (
	"database/sql"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var DB *goqu.Database

func ConnectDB() {
	dsn := os.Getenv("DB_URL")

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		zap.S().Fatalw("failed to open database", "error", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	err = db.Ping()
	if err != nil {
		zap.S().Fatalw("failed to reach database", "error", err)
	}

	DB = goqu.New("postgres", db)
}
