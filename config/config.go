// Package config loads process configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/franco-bianco/poolsniper/logging"
	"github.com/franco-bianco/poolsniper/raydium"
	"github.com/franco-bianco/poolsniper/rugcheck"
	"github.com/franco-bianco/poolsniper/spltoken/price"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

type Config struct {
	RPCURL         string           `mapstructure:"rpc_url"`
	WSSURL         string           `mapstructure:"wss_url"`
	ProgramAddress solana.PublicKey `mapstructure:"program_address"`
	TradeSizeSOL   decimal.Decimal  `mapstructure:"trade_size_sol"`

	RedisURL       string `mapstructure:"redis_url"`
	PublishChannel string `mapstructure:"publish_channel"`
	DryRunFile     string `mapstructure:"dry_run_file"`

	Positions PositionsConfig `mapstructure:",squash"`
	Listener  ListenerConfig  `mapstructure:",squash"`
	Trust     TrustConfig     `mapstructure:",squash"`
	Logging   logging.Config  `mapstructure:",squash"`

	OpsAddr string `mapstructure:"ops_addr"`
}

type PositionsConfig struct {
	Backend         string `mapstructure:"positions_backend"`
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection"`
	DatabaseURL     string `mapstructure:"database_url"`
}

type ListenerConfig struct {
	MaxRetries        int           `mapstructure:"fetch_max_retries"`
	InitialDelay      time.Duration `mapstructure:"fetch_initial_delay"`
	PositionThreshold int64         `mapstructure:"position_threshold"`
	ThrottleCooldown  time.Duration `mapstructure:"throttle_cooldown"`
	DedupCapacity     int           `mapstructure:"dedup_capacity"`
}

type TrustConfig struct {
	RugcheckURL     string          `mapstructure:"rugcheck_url"`
	BinanceBase     string          `mapstructure:"binance_base"`
	MinLiquidityUSD decimal.Decimal `mapstructure:"min_liquidity_usd"`
	MinBurnPct      decimal.Decimal `mapstructure:"min_burn_pct"`
	MaxHolderPct    decimal.Decimal `mapstructure:"max_holder_pct"`
	BurnInterval    time.Duration   `mapstructure:"burn_interval"`
	BurnTimeout     time.Duration   `mapstructure:"burn_timeout"`
}

// Pipeline returns the trust pipeline settings.
func (t TrustConfig) Pipeline() rugcheck.Config {
	cfg := rugcheck.DefaultConfig()
	cfg.MinLiquidityUSD = t.MinLiquidityUSD
	cfg.MinBurnPct = t.MinBurnPct
	cfg.MaxHolderPct = t.MaxHolderPct
	cfg.BurnInterval = t.BurnInterval
	cfg.BurnTimeout = t.BurnTimeout
	return cfg
}

// keys lists every setting so AutomaticEnv can see keys that have no default.
var keys = []string{
	"rpc_url", "wss_url", "program_address", "trade_size_sol",
	"redis_url", "publish_channel", "dry_run_file",
	"positions_backend", "mongo_uri", "mongo_database", "mongo_collection", "database_url",
	"fetch_max_retries", "fetch_initial_delay", "position_threshold", "throttle_cooldown", "dedup_capacity",
	"rugcheck_url", "binance_base", "min_liquidity_usd", "min_burn_pct", "max_holder_pct", "burn_interval", "burn_timeout",
	"log_level", "log_format", "log_file",
	"ops_addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("program_address", raydium.RAYDIUM_V4_PROGRAM_ID.String())
	v.SetDefault("trade_size_sol", "0.005")
	v.SetDefault("publish_channel", "trading")

	v.SetDefault("positions_backend", BackendMongo)
	v.SetDefault("mongo_database", "solsniper")
	v.SetDefault("mongo_collection", "tokens")

	v.SetDefault("fetch_max_retries", 3)
	v.SetDefault("fetch_initial_delay", "2s")
	v.SetDefault("position_threshold", 3)
	v.SetDefault("throttle_cooldown", "600s")
	v.SetDefault("dedup_capacity", 10000)

	v.SetDefault("rugcheck_url", rugcheck.DefaultReportURL)
	v.SetDefault("binance_base", price.BinanceDefaultBase)
	v.SetDefault("min_liquidity_usd", "1000")
	v.SetDefault("min_burn_pct", "80")
	v.SetDefault("max_holder_pct", "20")
	v.SetDefault("burn_interval", "15s")
	v.SetDefault("burn_timeout", "220s")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("ops_addr", ":8080")
}

// Load reads envFiles (missing files are skipped) and then the process environment,
// and validates everything the listener needs.
func Load(envFiles ...string) (*Config, error) {
	cfg, err := decode(envFiles)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadRPC is Load for commands that only talk to the RPC node.
func LoadRPC(envFiles ...string) (*Config, error) {
	cfg, err := decode(envFiles)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateRPC(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(envFiles []string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func isNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToDecimalHook(),
			stringToPublicKeyHook(),
		)
	}
}

func stringToDecimalHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(decimal.Decimal{})
	return func(from, to reflect.Type, data any) (any, error) {
		if to != target {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return decimal.NewFromString(strings.TrimSpace(v))
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case float64:
			return decimal.NewFromFloat(v), nil
		}
		return data, nil
	}
}

func stringToPublicKeyHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(solana.PublicKey{})
	return func(from, to reflect.Type, data any) (any, error) {
		if to != target || from.Kind() != reflect.String {
			return data, nil
		}
		return solana.PublicKeyFromBase58(strings.TrimSpace(data.(string)))
	}
}

// ValidateRPC checks the settings needed to fetch and parse transactions.
func (c *Config) ValidateRPC() error {
	if c.RPCURL == "" {
		return errors.New("RPC_URL is required")
	}
	return nil
}

// Validate rejects configurations the listener cannot start with.
func (c *Config) Validate() error {
	if err := c.ValidateRPC(); err != nil {
		return err
	}
	if c.WSSURL == "" {
		return errors.New("WSS_URL is required")
	}
	if !c.TradeSizeSOL.IsPositive() {
		return errors.New("TRADE_SIZE_SOL must be greater than zero")
	}
	if c.DryRunFile == "" && c.RedisURL == "" {
		return errors.New("REDIS_URL is required unless DRY_RUN_FILE is set")
	}

	switch c.Positions.Backend {
	case BackendMongo:
		if c.Positions.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo positions backend")
		}
	case BackendPostgres:
		if c.Positions.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres positions backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown POSITIONS_BACKEND %q", c.Positions.Backend)
	}

	if c.Listener.MaxRetries < 0 {
		return errors.New("FETCH_MAX_RETRIES cannot be negative")
	}
	if c.Listener.DedupCapacity <= 0 {
		return errors.New("DEDUP_CAPACITY must be greater than zero")
	}
	if c.Trust.BurnInterval <= 0 || c.Trust.BurnTimeout <= 0 {
		return errors.New("BURN_INTERVAL and BURN_TIMEOUT must be greater than zero")
	}
	if c.Trust.MinLiquidityUSD.IsNegative() {
		return errors.New("MIN_LIQUIDITY_USD cannot be negative")
	}
	return nil
}
