package config

import (
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config holds all daemon configuration.
type Config struct {
	Ledger struct {
		Name      string `yaml:"name"`
		Symbol    string `yaml:"symbol"`
		Version   string `yaml:"version"`
		Address   string `yaml:"address"`
		BaseAsset string `yaml:"base_asset"`
		Decimals  int    `yaml:"decimals"`
	} `yaml:"ledger"`
	Distributor struct {
		Address            string `yaml:"address"`
		FeeAsset           string `yaml:"fee_asset"`
		FeeDecimals        int    `yaml:"fee_decimals"`
		StartTime          int64  `yaml:"start_time"`
		EmergencyReturn    string `yaml:"emergency_return"`
		CanCheckpointToken bool   `yaml:"can_checkpoint_token"`
	} `yaml:"distributor"`
	Chain struct {
		GenesisTime          int64 `yaml:"genesis_time"`
		GenesisHeight        int64 `yaml:"genesis_height"`
		BlockIntervalSeconds int64 `yaml:"block_interval_seconds"`
	} `yaml:"chain"`
	Admin struct {
		// Operator signs the scheduler's privileged calls.
		Operator  string   `yaml:"operator"`
		Addresses []string `yaml:"addresses"`
	} `yaml:"admin"`
	Agents   []string `yaml:"agents"`
	Schedule struct {
		CheckpointCron  string `yaml:"checkpoint_cron"`
		DistributorCron string `yaml:"distributor_cron"`
		ReportCron      string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Store struct {
		Driver        string `yaml:"driver"`
		Path          string `yaml:"path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		Namespace     string `yaml:"namespace"`
	} `yaml:"store"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file yields an all-default config.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, eris.Wrap(err, "parse config")
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_CHECKPOINT"); v != "" {
		cfg.Schedule.CheckpointCron = v
	}
	if v := os.Getenv("OPERATOR_ADDRESS"); v != "" {
		cfg.Admin.Operator = v
	}
	if v := os.Getenv("BLOCK_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Chain.BlockIntervalSeconds = n
		}
	}

	// Defaults
	if cfg.Ledger.Name == "" {
		cfg.Ledger.Name = "Vote-escrowed Token"
	}
	if cfg.Ledger.Symbol == "" {
		cfg.Ledger.Symbol = "veTOKEN"
	}
	if cfg.Ledger.Version == "" {
		cfg.Ledger.Version = "1.0.0"
	}
	if cfg.Ledger.Decimals == 0 {
		cfg.Ledger.Decimals = 18
	}
	if cfg.Distributor.FeeDecimals == 0 {
		cfg.Distributor.FeeDecimals = 18
	}
	if cfg.Chain.BlockIntervalSeconds == 0 {
		cfg.Chain.BlockIntervalSeconds = 12
	}
	if cfg.Schedule.CheckpointCron == "" {
		cfg.Schedule.CheckpointCron = "0 0 * * * *"
	}
	if cfg.Schedule.DistributorCron == "" {
		cfg.Schedule.DistributorCron = "0 5 0 * * *"
	}
	if cfg.Schedule.ReportCron == "" {
		cfg.Schedule.ReportCron = "0 0 9 * * 4"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "file"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "data/vesd_state.json"
	}
	if cfg.Store.Namespace == "" {
		cfg.Store.Namespace = "vesd"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/vesd_events.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well formed.
func (c *Config) Validate() error {
	addrs := map[string]string{
		"ledger.address":               c.Ledger.Address,
		"ledger.base_asset":            c.Ledger.BaseAsset,
		"distributor.address":          c.Distributor.Address,
		"distributor.fee_asset":        c.Distributor.FeeAsset,
		"distributor.emergency_return": c.Distributor.EmergencyReturn,
		"admin.operator":               c.Admin.Operator,
	}
	for field, v := range addrs {
		if v == "" {
			return eris.Errorf("%s is required", field)
		}
		if !common.IsHexAddress(v) {
			return eris.Errorf("%s: %q is not a hex address", field, v)
		}
	}
	for _, v := range append(append([]string{}, c.Admin.Addresses...), c.Agents...) {
		if !common.IsHexAddress(v) {
			return eris.Errorf("%q is not a hex address", v)
		}
	}
	if c.Ledger.Address == c.Distributor.Address {
		return eris.New("ledger.address and distributor.address must differ")
	}
	if c.Ledger.Decimals < 0 || c.Distributor.FeeDecimals < 0 {
		return eris.New("decimals must not be negative")
	}
	if c.Chain.BlockIntervalSeconds <= 0 {
		return eris.New("chain.block_interval_seconds must be positive")
	}
	switch c.Store.Driver {
	case "file", "redis":
	default:
		return eris.Errorf("store.driver must be file or redis, got %q", c.Store.Driver)
	}
	if c.Store.Driver == "redis" && c.Store.RedisAddr == "" {
		return eris.New("store.redis_addr is required for the redis driver")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return eris.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether reports and commands go through Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

