package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/id"
	"github.com/ggonzalez94/eth-trading-mcp/internal/registry"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultSourceTimeout = 5 * time.Second
	defaultOracleMaxAge  = 25 * time.Hour
	defaultCoinGeckoURL  = "https://api.coingecko.com/api/v3"
	coinGeckoAPIKeyEnv   = "COINGECKO_API_KEY"
	envPrefix            = "ETHMCP_"
)

type GlobalFlags struct {
	ConfigPath    string
	EnvFile       string
	JSON          bool
	Plain         bool
	Select        string
	ResultsOnly   bool
	EnableTools   string
	RPCURL        string
	ChainID       int64
	Timeout       string
	SourceTimeout string
	LogLevel      string
	LogFormat     string
}

type Settings struct {
	OutputMode    string
	SelectFields  []string
	ResultsOnly   bool
	EnableTools   []string
	RPCURL        string
	// ChainID is the chain the node must report. Zero accepts any chain.
	ChainID       int64
	Timeout       time.Duration
	SourceTimeout time.Duration
	OracleMaxAge  time.Duration
	LogLevel      string
	LogFormat     string

	CoinGeckoBaseURL string
	CoinGeckoAPIKey  string

	Contracts registry.ContractOverrides
}

type fileConfig struct {
	Output        *string  `yaml:"output"`
	RPCURL        *string  `yaml:"rpc_url"`
	ChainID       *int64   `yaml:"chain_id"`
	Timeout       *string  `yaml:"timeout"`
	SourceTimeout *string  `yaml:"source_timeout"`
	OracleMaxAge  *string  `yaml:"oracle_max_age"`
	EnableTools   []string `yaml:"enable_tools"`
	Log           struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"log"`
	Providers struct {
		CoinGecko struct {
			BaseURL   *string `yaml:"base_url"`
			APIKey    *string `yaml:"api_key"`
			APIKeyEnv *string `yaml:"api_key_env"`
		} `yaml:"coingecko"`
	} `yaml:"providers"`
	Contracts struct {
		WrappedNative    *string `yaml:"wrapped_native"`
		UniswapV2Router  *string `yaml:"uniswap_v2_router"`
		UniswapV2Factory *string `yaml:"uniswap_v2_factory"`
		ReferenceStable  *string `yaml:"reference_stable"`
		NativeUSDFeed    *string `yaml:"native_usd_feed"`
	} `yaml:"contracts"`
}

// Load resolves settings from defaults, the YAML config file, the .env file,
// the process environment and finally flags. Later layers win.
func Load(flags GlobalFlags) (Settings, error) {
	settings := defaultSettings()

	configPath, explicit, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return settings, clierr.Wrap(clierr.CodeInternal, "resolve config path", err)
	}
	if err := applyFileConfig(configPath, explicit, &settings); err != nil {
		return settings, err
	}
	if err := loadDotEnv(flags.EnvFile); err != nil {
		return settings, err
	}
	if err := applyEnv(&settings); err != nil {
		return settings, err
	}
	if err := applyFlags(flags, &settings); err != nil {
		return settings, err
	}
	if err := validate(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

func defaultSettings() Settings {
	return Settings{
		OutputMode:       "json",
		Timeout:          defaultTimeout,
		SourceTimeout:    defaultSourceTimeout,
		OracleMaxAge:     defaultOracleMaxAge,
		LogLevel:         "info",
		LogFormat:        "console",
		CoinGeckoBaseURL: defaultCoinGeckoURL,
	}
}

// resolveConfigPath returns the file to read and whether it was named
// explicitly. A missing default file is not an error.
func resolveConfigPath(flagPath string) (string, bool, error) {
	if strings.TrimSpace(flagPath) != "" {
		return flagPath, true, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false, err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "eth-trading-mcp", "config.yaml"), false, nil
}

func applyFileConfig(path string, explicit bool, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return clierr.Wrap(clierr.CodeInvalidArguments, "read config file", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return clierr.Wrap(clierr.CodeInvalidArguments, "parse config file", err)
	}

	if cfg.Output != nil {
		settings.OutputMode = strings.ToLower(*cfg.Output)
	}
	if cfg.RPCURL != nil {
		settings.RPCURL = strings.TrimSpace(*cfg.RPCURL)
	}
	if cfg.ChainID != nil {
		settings.ChainID = *cfg.ChainID
	}
	durations := []struct {
		key   string
		value *string
		dst   *time.Duration
	}{
		{"timeout", cfg.Timeout, &settings.Timeout},
		{"source_timeout", cfg.SourceTimeout, &settings.SourceTimeout},
		{"oracle_max_age", cfg.OracleMaxAge, &settings.OracleMaxAge},
	}
	for _, d := range durations {
		if d.value == nil {
			continue
		}
		parsed, err := parseDuration(d.key, *d.value)
		if err != nil {
			return err
		}
		*d.dst = parsed
	}
	if len(cfg.EnableTools) > 0 {
		settings.EnableTools = normalizeList(cfg.EnableTools)
	}
	if cfg.Log.Level != nil {
		settings.LogLevel = strings.ToLower(*cfg.Log.Level)
	}
	if cfg.Log.Format != nil {
		settings.LogFormat = strings.ToLower(*cfg.Log.Format)
	}

	cg := cfg.Providers.CoinGecko
	if cg.BaseURL != nil {
		settings.CoinGeckoBaseURL = strings.TrimRight(strings.TrimSpace(*cg.BaseURL), "/")
	}
	if cg.APIKey != nil {
		settings.CoinGeckoAPIKey = strings.TrimSpace(*cg.APIKey)
	}
	if cg.APIKeyEnv != nil && strings.TrimSpace(*cg.APIKeyEnv) != "" {
		if v := os.Getenv(strings.TrimSpace(*cg.APIKeyEnv)); v != "" {
			settings.CoinGeckoAPIKey = v
		}
	}

	setString(&settings.Contracts.WrappedNative, cfg.Contracts.WrappedNative)
	setString(&settings.Contracts.UniswapV2Router, cfg.Contracts.UniswapV2Router)
	setString(&settings.Contracts.UniswapV2Factory, cfg.Contracts.UniswapV2Factory)
	setString(&settings.Contracts.ReferenceStable, cfg.Contracts.ReferenceStable)
	setString(&settings.Contracts.NativeUSDFeed, cfg.Contracts.NativeUSDFeed)
	return nil
}

// loadDotEnv reads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. Only an explicitly named file is
// required to exist.
func loadDotEnv(path string) error {
	if strings.TrimSpace(path) != "" {
		if err := godotenv.Load(path); err != nil {
			return clierr.Wrap(clierr.CodeInvalidArguments, "load env file", err)
		}
		return nil
	}
	_ = godotenv.Load()
	return nil
}

func applyEnv(settings *Settings) error {
	if v := os.Getenv(envPrefix + "OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("ETH_RPC_URL"); v != "" {
		settings.RPCURL = strings.TrimSpace(v)
	}
	if v := os.Getenv(envPrefix + "RPC_URL"); v != "" {
		settings.RPCURL = strings.TrimSpace(v)
	}
	if v := os.Getenv(envPrefix + "CHAIN_ID"); v != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return clierr.Wrap(clierr.CodeInvalidArguments, "parse "+envPrefix+"CHAIN_ID", err)
		}
		settings.ChainID = parsed
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{envPrefix + "TIMEOUT", &settings.Timeout},
		{envPrefix + "SOURCE_TIMEOUT", &settings.SourceTimeout},
		{envPrefix + "ORACLE_MAX_AGE", &settings.OracleMaxAge},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := parseDuration(d.key, v)
		if err != nil {
			return err
		}
		*d.dst = parsed
	}
	if v := os.Getenv(envPrefix + "ENABLE_TOOLS"); v != "" {
		settings.EnableTools = splitCSV(v)
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(envPrefix + "LOG_FORMAT"); v != "" {
		settings.LogFormat = strings.ToLower(v)
	}
	if v := os.Getenv(envPrefix + "COINGECKO_BASE_URL"); v != "" {
		settings.CoinGeckoBaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	if v := os.Getenv(coinGeckoAPIKeyEnv); v != "" {
		settings.CoinGeckoAPIKey = strings.TrimSpace(v)
	}
	return nil
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return clierr.New(clierr.CodeInvalidArguments, "--json and --plain cannot be used together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		settings.SelectFields = splitCSV(flags.Select)
	}
	if flags.ResultsOnly {
		settings.ResultsOnly = true
	}
	if strings.TrimSpace(flags.EnableTools) != "" {
		settings.EnableTools = splitCSV(flags.EnableTools)
	}
	if strings.TrimSpace(flags.RPCURL) != "" {
		settings.RPCURL = strings.TrimSpace(flags.RPCURL)
	}
	if flags.ChainID > 0 {
		settings.ChainID = flags.ChainID
	}
	if flags.Timeout != "" {
		parsed, err := parseDuration("--timeout", flags.Timeout)
		if err != nil {
			return err
		}
		settings.Timeout = parsed
	}
	if flags.SourceTimeout != "" {
		parsed, err := parseDuration("--source-timeout", flags.SourceTimeout)
		if err != nil {
			return err
		}
		settings.SourceTimeout = parsed
	}
	if flags.LogLevel != "" {
		settings.LogLevel = strings.ToLower(flags.LogLevel)
	}
	if flags.LogFormat != "" {
		settings.LogFormat = strings.ToLower(flags.LogFormat)
	}
	return nil
}

func validate(settings Settings) error {
	switch settings.OutputMode {
	case "json", "plain":
	default:
		return clierr.New(clierr.CodeInvalidArguments, fmt.Sprintf("unsupported output mode %q", settings.OutputMode))
	}
	switch settings.LogFormat {
	case "console", "json":
	default:
		return clierr.New(clierr.CodeInvalidArguments, fmt.Sprintf("unsupported log format %q", settings.LogFormat))
	}
	if settings.ChainID < 0 {
		return clierr.New(clierr.CodeInvalidArguments, "chain_id must not be negative")
	}
	if settings.Timeout <= 0 || settings.SourceTimeout <= 0 || settings.OracleMaxAge <= 0 {
		return clierr.New(clierr.CodeInvalidArguments, "timeouts must be positive")
	}
	overrides := map[string]string{
		"contracts.wrapped_native":     settings.Contracts.WrappedNative,
		"contracts.uniswap_v2_router":  settings.Contracts.UniswapV2Router,
		"contracts.uniswap_v2_factory": settings.Contracts.UniswapV2Factory,
		"contracts.reference_stable":   settings.Contracts.ReferenceStable,
		"contracts.native_usd_feed":    settings.Contracts.NativeUSDFeed,
	}
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if _, err := id.ParseAddress(value); err != nil {
			return clierr.Wrap(clierr.CodeInvalidArguments, "invalid "+key, err)
		}
	}
	return nil
}

func parseDuration(key, value string) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeInvalidArguments, "parse "+key, err)
	}
	return parsed, nil
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func splitCSV(input string) []string {
	return normalizeList(strings.Split(input, ","))
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		v := strings.TrimSpace(item)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
