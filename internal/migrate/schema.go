package migrate

import (
	"context"
	"coord-api/internal/logger"
	"database/sql"
	"fmt"
)

// 背景：首次运行自动创建统计与校验样本表，保障后续写入
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _coord_stats_total (
        id INT PRIMARY KEY,
        total_conversions BIGINT NOT NULL DEFAULT 0,
        total_visitors BIGINT NOT NULL DEFAULT 0
    )`,
	`INSERT INTO _coord_stats_total(id, total_conversions, total_visitors)
     VALUES(1, 0, 0)
     ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS _coord_stats_daily (
        day DATE PRIMARY KEY,
        conversions BIGINT NOT NULL DEFAULT 0,
        visitors BIGINT NOT NULL DEFAULT 0
    )`,
	`CREATE TABLE IF NOT EXISTS _coord_stats_pairs (
        src TEXT NOT NULL,
        dst TEXT NOT NULL,
        conversions BIGINT NOT NULL DEFAULT 0,
        PRIMARY KEY (src, dst)
    )`,
	`CREATE TABLE IF NOT EXISTS _coord_verify_samples (
        id BIGSERIAL PRIMARY KEY,
        src TEXT NOT NULL,
        lng DOUBLE PRECISION NOT NULL,
        lat DOUBLE PRECISION NOT NULL,
        local_lng DOUBLE PRECISION NOT NULL,
        local_lat DOUBLE PRECISION NOT NULL,
        amap_lng DOUBLE PRECISION NOT NULL,
        amap_lat DOUBLE PRECISION NOT NULL,
        diff_m DOUBLE PRECISION NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_verify_created ON _coord_verify_samples(created_at)`,
}

// EnsureSchema：按顺序执行建表语句，任一失败即返回并附带序号
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema stmt %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done", "stmts", len(stmts))
	return nil
}
