package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crm/internal/config"
	"crm/internal/handler"
	"crm/internal/infra/db"
	"crm/internal/infra/logger"
	infraRepo "crm/internal/infra/repository"
	"crm/internal/infra/storage"
	"crm/internal/server"
	"crm/internal/usecase"
	auth "crm/internal/usecase/auth_usecase"
	"crm/internal/validator"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("db handle: %w", err)
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	historyRepo := infraRepo.NewOrderHistoryGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//写真の保存先
	var blobs usecase.BlobStore
	uploadDir := ""
	switch cfg.StorageDriver {
	case config.StorageDriverSupabase:
		blobs = storage.NewSupabaseBlobStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
		log.Info("photo storage", zap.String("driver", cfg.StorageDriver), zap.String("bucket", cfg.SupabaseBucket))
	default:
		local := storage.NewLocalBlobStore(cfg.UploadDir)
		// 作れなくても起動は続ける（書き込み時にエラーになる）
		if err := local.EnsureDir(); err != nil {
			log.Warn("upload dir unavailable", zap.Error(err))
		}
		blobs = local
		uploadDir = local.BasePath()
		log.Info("photo storage", zap.String("driver", cfg.StorageDriver), zap.String("dir", uploadDir))
	}

	clock := usecase.SystemClock{}
	v := validator.New()

	//bcrypt（ユーザー同期：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		return err
	}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	meUC := auth.NewMeUsecase(userRepo)
	orderUC := usecase.NewOrderUsecase(
		orderRepo,
		txm,
		usecase.NewOrderNumberAllocator(cfg.OrderNumberFailClosed),
		blobs,
		v,
		clock,
		log.Named("orders"),
	)
	historyUC := usecase.NewOrderHistoryUsecase(orderRepo, historyRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SeedDefaultUsers {
		created, updated, err := registerUC.EnsureUsers(ctx, auth.DefaultUsers)
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		log.Info("default users ready", zap.Int("created", created), zap.Int("updated", updated))
	}

	//Handler生成
	e := server.New(server.Options{
		Config:    cfg,
		Logger:    log,
		Users:     userRepo,
		Validator: v,
		UploadDir: uploadDir,
	}, server.Handlers{
		Auth:   handler.NewAuthHandler(loginUC, meUC, log.Named("auth")),
		Orders: handler.NewOrderHandler(orderUC, historyUC, log.Named("orders")),
		Health: handler.NewHealthHandler(sqlDB.PingContext),
	})

	//Server起動
	return server.Start(ctx, e, cfg.Addr(), log)
}
