package utils

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

// BuildPostgresDSNFromEnv：按 PG_* 环境变量拼接 DSN，密码做 URL 转义
func BuildPostgresDSNFromEnv() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   EnvString("PG_HOST", "localhost") + ":" + EnvString("PG_PORT", "5432"),
		Path:   "/" + EnvString("PG_DB", "coordapi"),
	}
	if pass := EnvString("PG_PASSWORD", ""); pass != "" {
		u.User = url.UserPassword(EnvString("PG_USER", "postgres"), pass)
	} else {
		u.User = url.User(EnvString("PG_USER", "postgres"))
	}
	q := url.Values{}
	q.Set("sslmode", EnvString("PG_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenPostgresFromEnv：打开连接池；sql.Open 不建连，可用性由调用方 Ping 判定
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(EnvInt("PG_MAX_OPEN_CONNS", 20))
	db.SetMaxIdleConns(EnvInt("PG_MAX_IDLE_CONNS", 10))
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}
