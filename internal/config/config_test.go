package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
)

var envKeys = []string{
	"ETH_RPC_URL",
	"ETHMCP_RPC_URL",
	"ETHMCP_CHAIN_ID",
	"ETHMCP_OUTPUT",
	"ETHMCP_TIMEOUT",
	"ETHMCP_SOURCE_TIMEOUT",
	"ETHMCP_ORACLE_MAX_AGE",
	"ETHMCP_ENABLE_TOOLS",
	"ETHMCP_LOG_LEVEL",
	"ETHMCP_LOG_FORMAT",
	"ETHMCP_COINGECKO_BASE_URL",
	"COINGECKO_API_KEY",
	"TEST_CG_KEY",
}

// isolate clears every variable the loader reads and moves into an empty
// directory so no stray config or .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)
	return tmp
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	settings, err := Load(GlobalFlags{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "json" || settings.ChainID != 0 {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
	if settings.SourceTimeout != 5*time.Second || settings.OracleMaxAge != 25*time.Hour {
		t.Fatalf("unexpected default timeouts: %+v", settings)
	}
	if settings.RPCURL != "" {
		t.Fatalf("expected empty rpc url, got %q", settings.RPCURL)
	}
}

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	tmp := isolate(t)
	configPath := filepath.Join(tmp, "config.yaml")
	writeFile(t, configPath, "output: plain\nrpc_url: https://file.example\ntimeout: 3s\nsource_timeout: 2s\n")

	t.Setenv("ETHMCP_OUTPUT", "json")
	t.Setenv("ETH_RPC_URL", "https://env.example")
	t.Setenv("ETHMCP_SOURCE_TIMEOUT", "4s")

	flags := GlobalFlags{ConfigPath: configPath, Plain: true, SourceTimeout: "7s"}
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "plain" {
		t.Fatalf("expected flag to win, got output=%s", settings.OutputMode)
	}
	if settings.RPCURL != "https://env.example" {
		t.Fatalf("expected env rpc url over file, got %s", settings.RPCURL)
	}
	if settings.Timeout != 3*time.Second {
		t.Fatalf("expected file timeout, got %s", settings.Timeout)
	}
	if settings.SourceTimeout != 7*time.Second {
		t.Fatalf("expected flag source timeout, got %s", settings.SourceTimeout)
	}
}

func TestLoadPrefixedRPCURLWinsOverGeneric(t *testing.T) {
	isolate(t)
	t.Setenv("ETH_RPC_URL", "https://generic.example")
	t.Setenv("ETHMCP_RPC_URL", "https://prefixed.example")
	settings, err := Load(GlobalFlags{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.RPCURL != "https://prefixed.example" {
		t.Fatalf("unexpected rpc url %s", settings.RPCURL)
	}
}

func TestLoadDefaultConfigPathUnderXDG(t *testing.T) {
	tmp := isolate(t)
	writeFile(t, filepath.Join(tmp, "eth-trading-mcp", "config.yaml"), "chain_id: 8453\nenable_tools: [get_balance, ' swap_tokens ']\nlog:\n  level: DEBUG\n")
	settings, err := Load(GlobalFlags{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.ChainID != 8453 {
		t.Fatalf("expected chain id from config, got %d", settings.ChainID)
	}
	if len(settings.EnableTools) != 2 || settings.EnableTools[1] != "swap_tokens" {
		t.Fatalf("unexpected allowlist %#v", settings.EnableTools)
	}
	if settings.LogLevel != "debug" {
		t.Fatalf("unexpected log level %s", settings.LogLevel)
	}
}

func TestLoadMissingExplicitConfigFails(t *testing.T) {
	tmp := isolate(t)
	_, err := Load(GlobalFlags{ConfigPath: filepath.Join(tmp, "absent.yaml")})
	if clierr.CodeOf(err) != clierr.CodeInvalidArguments {
		t.Fatalf("expected invalid arguments, got %v", err)
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	tmp := isolate(t)
	writeFile(t, filepath.Join(tmp, ".env"), "ETH_RPC_URL=https://dotenv.example\nETHMCP_LOG_LEVEL=warn\n")
	t.Setenv("ETHMCP_LOG_LEVEL", "error")

	settings, err := Load(GlobalFlags{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.RPCURL != "https://dotenv.example" {
		t.Fatalf("expected rpc url from .env, got %q", settings.RPCURL)
	}
	if settings.LogLevel != "error" {
		t.Fatalf("expected process env to win over .env, got %s", settings.LogLevel)
	}
}

func TestLoadExplicitEnvFileMustExist(t *testing.T) {
	tmp := isolate(t)
	_, err := Load(GlobalFlags{EnvFile: filepath.Join(tmp, "missing.env")})
	if err == nil {
		t.Fatal("expected error for missing env file")
	}
}

func TestLoadCoinGeckoKeyFromNamedEnv(t *testing.T) {
	tmp := isolate(t)
	configPath := filepath.Join(tmp, "config.yaml")
	writeFile(t, configPath, "providers:\n  coingecko:\n    base_url: https://pro-api.coingecko.com/api/v3/\n    api_key_env: TEST_CG_KEY\n")
	t.Setenv("TEST_CG_KEY", "cg-secret")

	settings, err := Load(GlobalFlags{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.CoinGeckoAPIKey != "cg-secret" {
		t.Fatalf("unexpected api key %q", settings.CoinGeckoAPIKey)
	}
	if settings.CoinGeckoBaseURL != "https://pro-api.coingecko.com/api/v3" {
		t.Fatalf("unexpected base url %q", settings.CoinGeckoBaseURL)
	}
}

func TestLoadContractOverrides(t *testing.T) {
	tmp := isolate(t)
	configPath := filepath.Join(tmp, "config.yaml")
	writeFile(t, configPath, "contracts:\n  uniswap_v2_router: '0x1111111111111111111111111111111111111111'\n")
	settings, err := Load(GlobalFlags{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Contracts.UniswapV2Router != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("unexpected override %q", settings.Contracts.UniswapV2Router)
	}

	writeFile(t, configPath, "contracts:\n  native_usd_feed: not-an-address\n")
	if _, err := Load(GlobalFlags{ConfigPath: configPath}); clierr.CodeOf(err) != clierr.CodeInvalidArguments {
		t.Fatalf("expected invalid override to fail, got %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	isolate(t)
	cases := []struct {
		name  string
		flags GlobalFlags
	}{
		{"json and plain", GlobalFlags{JSON: true, Plain: true}},
		{"bad timeout", GlobalFlags{Timeout: "soon"}},
		{"zero timeout", GlobalFlags{SourceTimeout: "0s"}},
		{"bad log format", GlobalFlags{LogFormat: "xml"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(tc.flags); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadSelectAndAllowlistFlags(t *testing.T) {
	isolate(t)
	settings, err := Load(GlobalFlags{Select: "priceUsd, source", EnableTools: "get_token_price", ResultsOnly: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(settings.SelectFields) != 2 || settings.SelectFields[1] != "source" {
		t.Fatalf("unexpected select fields %#v", settings.SelectFields)
	}
	if len(settings.EnableTools) != 1 || !settings.ResultsOnly {
		t.Fatalf("unexpected settings %+v", settings)
	}
}
