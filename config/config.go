package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
// Tags carry the full variable name.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:""`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"zypl_project"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	PostgresTable    string `envconfig:"POSTGRES_TABLE" default:"full_customers"`

	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./my.db"`
	SQLiteTable string `envconfig:"SQLITE_TABLE" default:"customers"`

	CSVPath string `envconfig:"CSV_PATH" default:"./data/processed_test.csv"`

	// A zero CleanCreditHistoryMax disables that rule.
	CleanAgeMin           float64  `envconfig:"CLEAN_AGE_MIN" default:"1"`
	CleanAgeMax           float64  `envconfig:"CLEAN_AGE_MAX" default:"100"`
	CleanIncomeMax        float64  `envconfig:"CLEAN_INCOME_MAX" default:"1000000"`
	CleanBankAccountsMax  float64  `envconfig:"CLEAN_BANK_ACCOUNTS_MAX" default:"10"`
	CleanCreditCardsMax   float64  `envconfig:"CLEAN_CREDIT_CARDS_MAX" default:"10"`
	CleanCreditHistoryMax float64  `envconfig:"CLEAN_CREDIT_HISTORY_MAX" default:"0"`
	NumericColumns        []string `envconfig:"CLEAN_NUMERIC_COLUMNS" default:"Annual_Income,Num_Bank_Accounts,Num_Credit_Card,Interest_Rate,Num_Credit_Inquiries,Outstanding_Debt,Credit_Utilization_Ratio,Amount_invested_monthly"`

	InterestRateCap    float64 `envconfig:"VIEW_INTEREST_RATE_CAP" default:"50"`
	CreditInquiriesCap float64 `envconfig:"VIEW_CREDIT_INQUIRIES_CAP" default:"20"`
	CreditHistoryCap   float64 `envconfig:"VIEW_CREDIT_HISTORY_CAP" default:"100"`
	HistogramBins      int     `envconfig:"VIEW_BINS" default:"20"`

	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8050"`
	HTTPAllowedOrigins  []string      `envconfig:"HTTP_ALLOWED_ORIGINS" default:"*"`
	HTTPReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`

	DashboardURL   string        `envconfig:"SNAPSHOT_DASHBOARD_URL" default:"http://localhost:8050"`
	SnapshotDir    string        `envconfig:"SNAPSHOT_OUTPUT_DIR" default:"./output/snapshots"`
	MaxConcurrency int           `envconfig:"SNAPSHOT_MAX_CONCURRENCY" default:"2"`
	RateLimitMs    int           `envconfig:"SNAPSHOT_RATE_LIMIT_MS" default:"500"`
	MaxRetries     int           `envconfig:"SNAPSHOT_MAX_RETRIES" default:"3"`
	PageTimeout    time.Duration `envconfig:"SNAPSHOT_PAGE_TIMEOUT" default:"30s"`
	ChromeBin      string        `envconfig:"CHROME_BIN" default:""`
}

// Load reads the .env file and returns a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	if cfg.CleanAgeMin > cfg.CleanAgeMax {
		return nil, fmt.Errorf("config: CLEAN_AGE_MIN %.0f exceeds CLEAN_AGE_MAX %.0f",
			cfg.CleanAgeMin, cfg.CleanAgeMax)
	}
	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
