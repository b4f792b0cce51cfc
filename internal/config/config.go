package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
// 起動時に1回だけ作り、各部品に渡す。
type Config struct {
	Port string // サーバーポート（8000）

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret      string        // JWT署名シークレット
	AccessTokenTTL time.Duration // アクセストークンの有効期限（固定）

	StorageDriver      string // local / supabase
	UploadDir          string // localの保存先
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	CORSOrigins []string

	// 9999到達後の採番をエラーにするか（falseなら9999のまま）
	OrderNumberFailClosed bool

	SeedDefaultUsers bool
	LogLevel         string
	GoEnv            string // dev/prod
}

const (
	StorageDriverLocal    = "local"
	StorageDriverSupabase = "supabase"
)

// Loadは.env（あれば）と環境変数
func Load() (Config, error) {
	// .envが無いのは許す
	_ = godotenv.Load()

	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	ttl, err := durationDefault("ACCESS_TOKEN_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	failClosed, err := boolDefault("ORDER_NUMBER_FAIL_CLOSED", true)
	if err != nil {
		return Config{}, err
	}
	seed, err := boolDefault("SEED_DEFAULT_USERS", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8000"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "furniture_crm"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: ttl,

		StorageDriver:      getenv("STORAGE_DRIVER", StorageDriverLocal),
		UploadDir:          getenv("UPLOAD_DIR", "uploads"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket:     getenv("SUPABASE_BUCKET", "order-photos"),

		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:3000,http://frontend:3000")),

		OrderNumberFailClosed: failClosed,
		SeedDefaultUsers:      seed,
		LogLevel:              getenv("LOG_LEVEL", "info"),
		GoEnv:                 getenv("GO_ENV", "dev"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		if cfg.GoEnv != "dev" {
			return Config{}, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.JWTSecret = "dev_secret_change_me"
	}
	switch cfg.StorageDriver {
	case StorageDriverLocal:
	case StorageDriverSupabase:
		if cfg.SupabaseURL == "" {
			return Config{}, fmt.Errorf("SUPABASE_URL is required")
		}
		if cfg.SupabaseServiceKey == "" {
			return Config{}, fmt.Errorf("SUPABASE_SERVICE_KEY is required")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverLocal, StorageDriverSupabase)
	}

	return cfg, nil
}

// DATABASE_URLが無ければ部品から組み立てる
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// ":8000"の形にする
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func boolDefault(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
