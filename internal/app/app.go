package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hitoshi/jobboard/internal/application"
	"github.com/hitoshi/jobboard/internal/auth"
	"github.com/hitoshi/jobboard/internal/config"
	"github.com/hitoshi/jobboard/internal/database"
	"github.com/hitoshi/jobboard/internal/handler"
	"github.com/hitoshi/jobboard/internal/job"
	"github.com/hitoshi/jobboard/internal/logger"
	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/security"
	"github.com/hitoshi/jobboard/internal/storage"
)

const (
	// uploadsPrefix はローカル保存した履歴書の配信パス。
	uploadsPrefix = "/uploads/"

	startupPingTimeout = 10 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, nil)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたレベルでロガーを再構築する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "4000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.String("resume_storage", cfg.ResumeStorage),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// データストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. データストア
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Error("failed to close data store", slog.String("error", err.Error()))
		}
	}()

	// 2. 履歴書ストレージ
	resumes, uploads, err := openResumeStore(ctx, cfg)
	if err != nil {
		return err
	}

	// 3. ルーターの構築
	router, rateLimiter := buildRouter(cfg, store, resumes, uploads, slog.Default())
	defer rateLimiter.Stop()

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はサービス群を組み立て、HTTPルーターを構築する。
// 返却されるRateLimiterは呼び出し側でStopすること。
func buildRouter(
	cfg *config.Config,
	store *repository.Store,
	resumes storage.ResumeStore,
	uploads http.Handler,
	log *slog.Logger,
) (http.Handler, *middleware.RateLimiter) {
	// メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// ドメインサービス
	sanitizer := security.NewTextSanitizer()
	tokens := auth.NewTokenIssuer(cfg.JWTSecretKey, cfg.JWTExpire)
	authService := auth.NewService(store.Users, tokens, collector)
	jobService := job.NewService(store.Jobs, sanitizer, collector)
	appService := application.NewService(store.Applications, store.Jobs, resumes, sanitizer, collector)

	// レート制限（設定値はreq/min単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = middleware.PerMinute(cfg.RateLimitGeneral)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.AuthRate = middleware.PerMinute(cfg.RateLimitAuth)
	rateLimiterCfg.AuthBurst = cfg.RateLimitAuth
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)

	deps := &handler.RouterDeps{
		Authenticator:      authService,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        rateLimiter,
		Logger:             log,
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(registry),
		Health:             store,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
			CookieMaxAge: cfg.CookieMaxAge(),
		},

		JobService: jobService,

		ApplicationService: appService,
		MaxResumeSize:      cfg.ResumeMaxSize,

		UploadsHandler: uploads,
	}

	return handler.NewRouter(deps), rateLimiter
}

// openStore はDATABASE_DRIVERに応じたデータストアを開く。
// 初回疎通に失敗しても起動は継続し、リクエストごとのエラーとして扱う。
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := database.OpenPostgres(database.PostgresOptions{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		store := repository.NewPostgresStore(db)
		pingStore(ctx, cfg, store, cfg.DatabaseURL)
		return store, nil

	default:
		client, db, err := database.ConnectMongo(ctx, database.MongoOptions{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			ConnectTimeout: cfg.MongoConnectTimeout,
			SocketTimeout:  cfg.MongoSocketTimeout,
		})
		if err != nil {
			return nil, err
		}
		store := repository.NewMongoStore(client, db)
		if pingStore(ctx, cfg, store, cfg.MongoURI) {
			ensureMongoIndexes(ctx, db)
		}
		return store, nil
	}
}

// pingStore は初回の疎通確認を行い、接続できたかを返す。失敗はログに残すのみ。
func pingStore(ctx context.Context, cfg *config.Config, store *repository.Store, rawURL string) bool {
	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()

	if err := store.PingContext(pingCtx); err != nil {
		slog.Warn("database connection failed, continuing without it",
			slog.String("driver", cfg.DatabaseDriver),
			slog.String("url", redactURL(rawURL)),
			slog.String("error", err.Error()),
		)
		return false
	}
	slog.Info("database connection established", slog.String("driver", cfg.DatabaseDriver))
	return true
}

// ensureMongoIndexes は起動時にインデックスを作成する。
// migrate未実行の環境でもusersのemail一意インデックスを保証する。失敗しても起動は継続する。
func ensureMongoIndexes(ctx context.Context, db *mongo.Database) {
	idxCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()

	if err := database.EnsureIndexes(idxCtx, db); err != nil {
		slog.Warn("failed to ensure mongo indexes", slog.String("error", err.Error()))
		return
	}
	slog.Info("mongo indexes ensured", slog.String("database", db.Name()))
}

// openResumeStore はRESUME_STORAGEに応じた履歴書ストレージを開く。
// ローカル保存の場合は配信用ハンドラーも返す。
func openResumeStore(ctx context.Context, cfg *config.Config) (storage.ResumeStore, http.Handler, error) {
	if cfg.ResumeStorage == config.StorageS3 {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		return s3Store, nil, nil
	}

	if err := os.MkdirAll(cfg.ResumeLocalDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create resume directory: %w", err)
	}
	local := storage.NewLocalStore(cfg.ResumeLocalDir, cfg.ResumeBaseURL)
	return local, local.Handler(uploadsPrefix), nil
}

// runMigrate はデータベースのスキーマを準備する。
// PostgreSQLは未適用マイグレーションを順番に適用し、MongoDBはインデックスを作成する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseDriver == config.DriverPostgres {
		slog.Info("running database migrations",
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		version, err := database.RunMigrations(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	slog.Info("creating mongo indexes", slog.String("uri", redactURL(cfg.MongoURI)))
	client, db, err := database.ConnectMongo(ctx, database.MongoOptions{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnectTimeout: cfg.MongoConnectTimeout,
		SocketTimeout:  cfg.MongoSocketTimeout,
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer client.Disconnect(context.Background())

	if err := database.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	slog.Info("mongo indexes created successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// redactURL は接続URLのパスワードをマスクする。解析できない場合は全体を伏せる。
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
