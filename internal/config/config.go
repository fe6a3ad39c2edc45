package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"landq-backend/internal/domain/loan"
	"landq-backend/pkg/account"
)

type Config struct {
	AppPort string
	LogMode string // dev | prod

	DBDriver   string // mysql | postgres | sqlite
	DBLogLevel string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	PostgresDSN string
	SQLitePath  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdempTTLSecs int

	EventsSink      string // redis | amqp | log
	EventsStream    string
	EventsStreamMax int64
	AMQPURL         string
	AMQPExchange    string

	OracleKind            string // redis | static
	OracleKey             string
	OracleStaticNumerator int64
	OracleScale           int64

	Admins                   []string
	LoanTiers                []loan.Tier
	GracePeriodSecs          int64
	AllowReverifyAfterReject bool
	OverpaymentPolicy        string // accept | reject

	SweepIntervalSecs int
	SweepBatch        int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int64) (int64, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getbool(k string, d bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads the environment, after loading files (default ".env") if they
// exist. Variables already set win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := &Config{
		AppPort:    getenv("APP_PORT", "8080"),
		LogMode:    getenv("LOG_MODE", "prod"),
		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBLogLevel: getenv("DB_LOG_LEVEL", "warn"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "landq"),
		MySQLUser: getenv("MYSQL_USER", "landq"),
		MySQLPass: getenv("MYSQL_PASS", "landq"),

		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		SQLitePath:  getenv("SQLITE_PATH", "landq.db"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		EventsSink:   strings.ToLower(getenv("EVENTS_SINK", "log")),
		EventsStream: getenv("EVENTS_STREAM", "landq:events"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getenv("AMQP_EXCHANGE", "landq.events"),

		OracleKind: strings.ToLower(getenv("ORACLE_KIND", "redis")),
		OracleKey:  getenv("ORACLE_KEY", "landq:oracle:rate"),

		Admins:            splitList(os.Getenv("ADMIN_ACCOUNTS")),
		OverpaymentPolicy: strings.ToLower(getenv("OVERPAYMENT_POLICY", "accept")),
	}

	var errs []error
	num := func(k string, d int64) int64 {
		n, err := getint(k, d)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	c.RedisDB = int(num("REDIS_DB", 0))
	c.IdempTTLSecs = int(num("IDEMPOTENCY_TTL_SECONDS", 300))
	c.EventsStreamMax = num("EVENTS_STREAM_MAXLEN", 100_000)
	c.OracleStaticNumerator = num("ORACLE_STATIC_NUMERATOR", 0)
	// 1 collateral unit = 1e8 minor units (satoshi)
	c.OracleScale = num("ORACLE_SCALE", 100_000_000)
	c.GracePeriodSecs = num("GRACE_PERIOD_SECONDS", int64(loan.DefaultGracePeriod/time.Second))
	c.SweepIntervalSecs = int(num("DEFAULT_SWEEP_INTERVAL_SECONDS", 0))
	c.SweepBatch = int(num("DEFAULT_SWEEP_BATCH", 100))

	reverify, err := getbool("ALLOW_REVERIFY_AFTER_REJECT", false)
	if err != nil {
		errs = append(errs, err)
	}
	c.AllowReverifyAfterReject = reverify

	c.LoanTiers = loan.DefaultTiers
	if v := os.Getenv("LOAN_TIERS"); v != "" {
		tiers, err := loan.ParseTiers(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOAN_TIERS: %w", err))
		}
		c.LoanTiers = tiers
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.EventsSink {
	case "redis", "log":
	case "amqp":
		if c.AMQPURL == "" {
			return errors.New("EVENTS_SINK=amqp needs AMQP_URL")
		}
	default:
		return fmt.Errorf("unsupported EVENTS_SINK %q", c.EventsSink)
	}

	switch c.OracleKind {
	case "redis":
		if c.OracleKey == "" {
			return errors.New("missing ORACLE_KEY")
		}
	case "static":
		if c.OracleStaticNumerator <= 0 {
			return errors.New("ORACLE_KIND=static needs a positive ORACLE_STATIC_NUMERATOR")
		}
	default:
		return fmt.Errorf("unsupported ORACLE_KIND %q", c.OracleKind)
	}
	if c.OracleScale <= 0 {
		return errors.New("ORACLE_SCALE must be positive")
	}

	for _, a := range c.Admins {
		if !account.Valid(a) {
			return fmt.Errorf("ADMIN_ACCOUNTS: %q is not an account address", a)
		}
	}
	if c.GracePeriodSecs < 0 {
		return errors.New("GRACE_PERIOD_SECONDS must not be negative")
	}
	if c.OverpaymentPolicy != "accept" && c.OverpaymentPolicy != "reject" {
		return fmt.Errorf("OVERPAYMENT_POLICY must be accept or reject, got %q", c.OverpaymentPolicy)
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if c.SweepIntervalSecs < 0 || c.SweepBatch <= 0 {
		return errors.New("DEFAULT_SWEEP_INTERVAL_SECONDS must be >= 0 and DEFAULT_SWEEP_BATCH > 0")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime is needed for DATETIME columns
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the selected driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return c.PostgresDSN
	case "sqlite":
		return c.SQLitePath
	default:
		return c.MySQLDSN()
	}
}

func (c *Config) GracePeriod() time.Duration { return time.Duration(c.GracePeriodSecs) * time.Second }

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) SweepInterval() time.Duration { return time.Duration(c.SweepIntervalSecs) * time.Second }
