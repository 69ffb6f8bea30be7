// 包 store: 提供与 PostgreSQL 的数据访问层，包含换算统计与 AMap 校验样本的读写
package store

import (
	"context"
	"coord-api/internal/logger"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供统计接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

// 文档注释：递增换算统计
// 背景：一次请求换算 n 个点，总计、当日与坐标系对三个维度同事务累加；新访客额外计入访客数。
// 约束：n<=0 时不写库；访客是否为新访客由上层（布隆去重）判定。
func (s *Store) IncrStats(ctx context.Context, from, to string, n int, newVisitor bool) error {
	if n <= 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stats tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	type execStmt struct {
		q    string
		args []any
	}
	stmts := []execStmt{
		{"UPDATE _coord_stats_total SET total_conversions=total_conversions+$1 WHERE id=1", []any{n}},
		{"INSERT INTO _coord_stats_daily(day, conversions) VALUES(current_date, $1) ON CONFLICT (day) DO UPDATE SET conversions=_coord_stats_daily.conversions+EXCLUDED.conversions", []any{n}},
		{"INSERT INTO _coord_stats_pairs(src, dst, conversions) VALUES($1, $2, $3) ON CONFLICT (src, dst) DO UPDATE SET conversions=_coord_stats_pairs.conversions+EXCLUDED.conversions", []any{from, to, n}},
	}
	if newVisitor {
		stmts = append(stmts,
			execStmt{"UPDATE _coord_stats_total SET total_visitors=total_visitors+1 WHERE id=1", nil},
			execStmt{"INSERT INTO _coord_stats_daily(day, visitors) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET visitors=_coord_stats_daily.visitors+1", nil},
		)
	}
	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.q, st.args...); err != nil {
			return fmt.Errorf("stats exec: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stats tx: %w", err)
	}
	logger.L().Debug("stats_incr", "from", from, "to", to, "n", n, "visitor", newVisitor)
	return nil
}

// Totals: 统计返回结构，包含累计、当日换算次数、当日访客与各坐标系对计数
type Totals struct {
	Total         int64            `json:"total"`
	Today         int64            `json:"today"`
	VisitorsToday int64            `json:"visitors_today"`
	Pairs         map[string]int64 `json:"pairs"`
}

// GetTotals: 读取统计；当日尚无记录时当日字段为 0
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	t := Totals{Pairs: map[string]int64{}}
	if err := s.db.QueryRowContext(ctx, "SELECT total_conversions FROM _coord_stats_total WHERE id=1").Scan(&t.Total); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read totals: %w", err)
	}
	err := s.db.QueryRowContext(ctx, "SELECT conversions, visitors FROM _coord_stats_daily WHERE day=current_date").Scan(&t.Today, &t.VisitorsToday)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read daily: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT src, dst, conversions FROM _coord_stats_pairs")
	if err != nil {
		return nil, fmt.Errorf("read pairs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var src, dst string
		var n int64
		if err := rows.Scan(&src, &dst, &n); err != nil {
			return nil, err
		}
		t.Pairs[src+">"+dst] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today, "pairs", len(t.Pairs))
	return &t, nil
}

// VerifySample：一次本地换算与 AMap 换算的对照样本
type VerifySample struct {
	Source   string
	Lng      float64
	Lat      float64
	LocalLng float64
	LocalLat float64
	AMapLng  float64
	AMapLat  float64
	DiffM    float64
}

// 文档注释：记录校验样本
// 背景：用于离线观察本地公式与高德服务端结果的偏差分布，不参与在线换算。
func (s *Store) RecordVerify(ctx context.Context, v VerifySample) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO _coord_verify_samples(src, lng, lat, local_lng, local_lat, amap_lng, amap_lat, diff_m)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.Source, v.Lng, v.Lat, v.LocalLng, v.LocalLat, v.AMapLng, v.AMapLat, v.DiffM,
	)
	if err != nil {
		return fmt.Errorf("record verify: %w", err)
	}
	return nil
}
