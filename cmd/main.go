// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"coord-api/internal/amap"
	"coord-api/internal/api"
	"coord-api/internal/geoip"
	"coord-api/internal/ingest"
	"coord-api/internal/localdb/ip2region"
	"coord-api/internal/localdb/ipip"
	"coord-api/internal/locate"
	"coord-api/internal/logger"
	"coord-api/internal/metrics"
	"coord-api/internal/middleware"
	"coord-api/internal/migrate"
	"coord-api/internal/revgeo"
	"coord-api/internal/store"
	"coord-api/internal/utils"
	"coord-api/internal/version"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Info("starting", "commit", version.Commit)
	apiBase := utils.EnvString("API_BASE", "/api")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := api.Deps{BatchMax: utils.EnvInt("BATCH_MAX_POINTS", 1000)}

	// 统计：数据库不可用时降级为关闭，换算接口不受影响
	if st := openStats(ctx); st != nil {
		defer st.Close()
		deps.Stats = st
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		deps.Redis = rc
	}

	// 反地理快照与定时重载
	revDir := utils.EnvString("REVGEO_DATA_DIR", filepath.Join("data", "revgeo"))
	snap, err := revgeo.LoadSnapshot(revDir)
	if err != nil {
		l.Error("revgeo_load_error", "dir", revDir, "err", err)
		snap = nil
	} else {
		l.Info("revgeo_ready", "dir", revDir, "units", len(snap.Units), "centroids", len(snap.Centroids))
	}
	orch := revgeo.NewOrchestrator(snap, revgeo.OptionsFromEnv())
	deps.RevGeo = orch
	reloader := &ingest.Reloader{Dir: revDir, CentroidsURL: os.Getenv("REVGEO_CENTROIDS_URL"), Target: orch}
	if c, err := ingest.StartReloadCron(utils.EnvString("REVGEO_RELOAD_CRON", "0 3 * * 1"), utils.EnvString("REVGEO_RELOAD_TZ", "Asia/Shanghai"), reloader); err != nil {
		l.Error("revgeo_cron_error", "err", err)
	} else {
		defer c.Stop()
	}

	// 文档注释：定位来源注册
	// 背景：MaxMind、IP2Region 与 IPIP 为本地库，高德为在线接口；缺失的数据文件或密钥只跳过对应来源。
	lm := locate.NewManager(rc)
	if path := utils.EnvString("GEOIP_DB_PATH", filepath.Join("data", "geoip", "GeoLite2-City.mmdb")); fileExists(path) {
		if r, err := geoip.Open(path, utils.EnvString("GEOIP_LANG", "zh-CN")); err == nil {
			defer r.Close()
			l.Info("geoip_ready", "path", path, "db", geoip.Describe(r.Metadata()))
			lm.Register(locate.NewGeoIPSource(r))
		} else {
			l.Error("geoip_open_error", "path", path, "err", err)
		}
	} else {
		l.Info("geoip_skipped", "path", path)
	}
	if v4 := os.Getenv("IP2REGION_V4_PATH"); v4 != "" {
		if s, err := ip2region.Open(v4, os.Getenv("IP2REGION_V6_PATH")); err == nil {
			defer s.Close()
			l.Info("ip2region_ready", "v4", v4)
			lm.Register(locate.NewRegionSource("ip2region", s, orch))
		} else {
			l.Error("ip2region_error", "err", err)
		}
	}
	if path := os.Getenv("IPIP_PATH"); path != "" {
		if r, err := ipip.Open(path, utils.EnvString("IPIP_LANG", "CN")); err == nil {
			l.Info("ipip_ready", "path", path, "build", r.Meta().Build)
			lm.Register(locate.NewRegionSource("ipip", r, orch))
		} else {
			l.Error("ipip_open_error", "path", path, "err", err)
		}
	}
	if key := os.Getenv("AMAP_SERVER_KEY"); key != "" {
		ac := amap.NewClient(key, &http.Client{Timeout: 4 * time.Second})
		lm.Register(locate.NewAMapSource(ac))
		deps.AMap = ac
	} else {
		l.Info("amap_disabled", "reason", "no_key")
	}
	lm.Start(ctx)
	deps.Locator = lm

	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, api.BuildRoutes(deps)))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	addr := utils.EnvString("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if utils.EnvBool("TLS_ENABLE", false) {
		certPath := utils.EnvString("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := utils.EnvString("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "coord-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("listening", "addr", addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_done")
}

// openStats 打开 Postgres 并确保表结构；STATS_ENABLED=false 或连接失败时返回 nil
func openStats(ctx context.Context) *store.Store {
	l := logger.L()
	if !utils.EnvBool("STATS_ENABLED", true) {
		l.Info("stats_disabled")
		return nil
	}
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		l.Error("db_ping_error", "err", err)
		_ = db.Close()
		return nil
	}
	if err := migrate.EnsureSchema(pctx, db); err != nil {
		l.Error("schema_error", "err", err)
		_ = db.Close()
		return nil
	}
	l.Info("db_ready")
	return store.AttachDB(db)
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
