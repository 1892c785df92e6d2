package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ggonzalez94/eth-trading-mcp/internal/chain"
	"github.com/ggonzalez94/eth-trading-mcp/internal/config"
	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/httpx"
	"github.com/ggonzalez94/eth-trading-mcp/internal/logx"
	"github.com/ggonzalez94/eth-trading-mcp/internal/mcpserver"
	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
	"github.com/ggonzalez94/eth-trading-mcp/internal/out"
	"github.com/ggonzalez94/eth-trading-mcp/internal/pricing"
	"github.com/ggonzalez94/eth-trading-mcp/internal/providers"
	"github.com/ggonzalez94/eth-trading-mcp/internal/providers/chainlink"
	"github.com/ggonzalez94/eth-trading-mcp/internal/providers/coingecko"
	"github.com/ggonzalez94/eth-trading-mcp/internal/providers/uniswapv2"
	"github.com/ggonzalez94/eth-trading-mcp/internal/registry"
	"github.com/ggonzalez94/eth-trading-mcp/internal/schema"
	"github.com/ggonzalez94/eth-trading-mcp/internal/swap"
	"github.com/ggonzalez94/eth-trading-mcp/internal/tokens"
	"github.com/ggonzalez94/eth-trading-mcp/internal/tools"
	"github.com/ggonzalez94/eth-trading-mcp/internal/version"
)

// dialFunc connects to the node. The returned func releases the connection.
type dialFunc func(ctx context.Context, cfg chain.Config, log zerolog.Logger) (chain.Reader, func(), error)

type Runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	dial   dialFunc
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdin:  os.Stdin,
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		dial:   dialNode,
	}
}

func dialNode(ctx context.Context, cfg chain.Config, log zerolog.Logger) (chain.Reader, func(), error) {
	client, err := chain.Dial(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

type runtimeState struct {
	runner      *Runner
	flags       config.GlobalFlags
	settings    config.Settings
	log         zerolog.Logger
	root        *cobra.Command
	lastCommand string
	lastTool    string

	dispatcher *tools.Dispatcher
	closeNode  func()
}

// Run executes the CLI and returns the process exit code. SIGINT and SIGTERM
// cancel the running command.
func (r *Runner) Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.RunContext(ctx, args)
}

func (r *Runner) RunContext(ctx context.Context, args []string) int {
	state := &runtimeState{runner: r, log: zerolog.Nop()}
	root := state.newRootCommand()
	state.root = root
	root.SetArgs(args)
	root.SetIn(r.stdin)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.ExecuteContext(ctx)
	state.close()
	err = normalizeRunError(err)
	if err == nil {
		return 0
	}
	state.renderError(err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "MCP server for Ethereum balances, token prices and swap quotes",
		Long: "Serves get_balance, get_token_price and swap_tokens to AI agents over the " +
			"Model Context Protocol on stdio. Swaps are simulated only; nothing is ever signed or sent.",
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			s.lastCommand = trimRootPath(cmd.CommandPath())
			settings, err := config.Load(s.flags)
			if err != nil {
				return err
			}
			s.settings = settings
			log, err := logx.NewWithWriter(s.runner.stderr, settings.LogLevel, settings.LogFormat)
			if err != nil {
				return err
			}
			s.log = log
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.serve(cmd.Context())
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeInvalidArguments, "parse flags: "+err.Error(), err)
	})

	flags := cmd.PersistentFlags()
	flags.BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	flags.BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	flags.StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated, dotted paths allowed)")
	flags.BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	flags.StringVar(&s.flags.EnableTools, "enable-tools", "", "Allowlist tool names (comma-separated)")
	flags.StringVar(&s.flags.RPCURL, "rpc-url", "", "Ethereum JSON-RPC endpoint (default $ETH_RPC_URL)")
	flags.Int64Var(&s.flags.ChainID, "chain-id", 0, "Chain id the endpoint must serve (0 accepts any)")
	flags.StringVar(&s.flags.Timeout, "timeout", "", "Per-call node request timeout")
	flags.StringVar(&s.flags.SourceTimeout, "source-timeout", "", "Per-source price request timeout")
	flags.StringVar(&s.flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&s.flags.LogFormat, "log-format", "", "Log format (console, json)")
	flags.StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	flags.StringVar(&s.flags.EnvFile, "env-file", "", "Path to a .env file (default ./.env when present)")

	cmd.AddCommand(s.newServeCommand())
	cmd.AddCommand(s.newCallCommand())
	cmd.AddCommand(s.newToolsCommand())
	cmd.AddCommand(s.newProvidersCommand())
	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func (s *runtimeState) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tools over stdio (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.serve(cmd.Context())
		},
	}
}

func (s *runtimeState) serve(ctx context.Context) error {
	dispatcher, err := s.buildDispatcher(ctx)
	if err != nil {
		return err
	}
	srv := mcpserver.New(dispatcher, s.log)
	err = srv.Serve(ctx, s.runner.stdin, s.runner.stdout)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		s.log.Info().Msg("mcp server stopped")
		return nil
	}
	return clierr.Wrap(clierr.CodeInternal, "serve mcp", err)
}

func (s *runtimeState) newCallCommand() *cobra.Command {
	var rawArgs string
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Run one tool call and print the result envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			s.lastTool = name
			if err := tools.CheckName(name, s.settings.EnableTools); err != nil {
				return err
			}
			toolArgs, err := decodeToolArgs(rawArgs)
			if err != nil {
				return err
			}
			dispatcher, err := s.buildDispatcher(cmd.Context())
			if err != nil {
				return err
			}
			result, err := dispatcher.Dispatch(cmd.Context(), name, toolArgs)
			if err != nil {
				return err
			}
			return s.emitSuccess(result)
		},
	}
	cmd.Flags().StringVar(&rawArgs, "args", "{}", "Tool arguments as a JSON object")
	return cmd
}

// decodeToolArgs keeps numbers as json.Number so integer arguments stay exact.
func decodeToolArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, clierr.Wrap(clierr.CodeInvalidArguments, "--args must be a JSON object", err).WithField("args")
	}
	if dec.More() {
		return nil, clierr.New(clierr.CodeInvalidArguments, "--args must hold exactly one JSON object").WithField("args")
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func (s *runtimeState) newToolsCommand() *cobra.Command {
	root := &cobra.Command{Use: "tools", Short: "Tool catalogue commands"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List the tools served over MCP with their input schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(toolSchemas())
		},
	}
	root.AddCommand(list)
	return root
}

func toolSchemas() []schema.ToolSchema {
	defs := tools.Definitions()
	items := make([]schema.ToolSchema, 0, len(defs))
	for _, def := range defs {
		items = append(items, schema.ToolSchema{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return items
}

func (s *runtimeState) newProvidersCommand() *cobra.Command {
	root := &cobra.Command{Use: "providers", Short: "Price source commands"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List price sources in fallback order (no keys or network required)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := make([]providers.ProviderInfo, 0, 3)
			for _, source := range s.priceSources(nil, s.settings.ChainID, registry.ChainContracts{}) {
				infos = append(infos, source.Info())
			}
			return s.emitSuccess(infos)
		},
	}
	root.AddCommand(list)
	return root
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [command path | tool]",
		Short: "Print machine-readable command and tool schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.Build(s.root, strings.Join(args, " "), toolSchemas())
			if err != nil {
				return clierr.Wrap(clierr.CodeInvalidArguments, err.Error(), err)
			}
			return s.emitSuccess(data)
		},
	}
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

// buildDispatcher dials the node once and wires the workflows against the
// chain it reports.
func (s *runtimeState) buildDispatcher(ctx context.Context) (*tools.Dispatcher, error) {
	if s.dispatcher != nil {
		return s.dispatcher, nil
	}

	lookupChain := s.settings.ChainID
	if lookupChain == 0 {
		lookupChain = 1
	}
	rpcURL, err := registry.ResolveRPCURL(s.settings.RPCURL, lookupChain)
	if err != nil {
		return nil, err
	}
	reader, closeNode, err := s.runner.dial(ctx, chain.Config{
		RPCURL:          rpcURL,
		CallTimeout:     s.settings.Timeout,
		ExpectedChainID: s.settings.ChainID,
	}, s.log)
	if err != nil {
		return nil, err
	}
	s.closeNode = closeNode

	id, err := reader.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	chainID := id.Int64()
	contracts, ok := registry.Contracts(chainID)
	if ok {
		contracts = s.settings.Contracts.Apply(contracts)
	} else {
		s.log.Warn().Int64("chain_id", chainID).Msg("no contract registry for chain; swap quotes and on-chain prices are unavailable")
	}

	resolver := tokens.NewResolver(reader, chainID, s.log)
	aggregator := pricing.NewAggregator(s.priceSources(reader, chainID, contracts), s.settings.SourceTimeout, s.log)
	s.dispatcher = tools.NewDispatcher(tools.Options{
		Chain:       reader,
		Tokens:      resolver,
		Prices:      aggregator,
		Swaps:       swap.NewSimulator(reader, resolver, contracts, s.log),
		EnableTools: s.settings.EnableTools,
		Log:         s.log,
	})
	return s.dispatcher, nil
}

// priceSources returns the sources in fallback order.
func (s *runtimeState) priceSources(reader chain.Reader, chainID int64, contracts registry.ChainContracts) []providers.PriceSource {
	httpClient := httpx.New(s.settings.SourceTimeout)
	return []providers.PriceSource{
		coingecko.New(httpClient, chainID, coingecko.Options{
			BaseURL: s.settings.CoinGeckoBaseURL,
			APIKey:  s.settings.CoinGeckoAPIKey,
		}),
		chainlink.New(reader, contracts, s.settings.OracleMaxAge),
		uniswapv2.NewReserveSource(reader, contracts),
	}
}

func (s *runtimeState) close() {
	if s.closeNode != nil {
		s.closeNode()
		s.closeNode = nil
	}
}

func (s *runtimeState) emitSuccess(data any) error {
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: true,
		Data:    data,
		Meta:    s.meta(),
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(err error) {
	if cErr, ok := clierr.As(err); !ok || cErr.Code == clierr.CodeInternal {
		s.log.Error().Err(err).Str("command", s.lastCommand).Msg("command failed")
	}

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil
	body := tools.ErrorPayload(err)
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Error:   &body,
		Meta:    s.meta(),
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func (s *runtimeState) meta() model.EnvelopeMeta {
	command := s.lastCommand
	if command == "" {
		command = version.CLIName
	}
	return model.EnvelopeMeta{
		RequestID: uuid.NewString(),
		Timestamp: s.runner.now().UTC(),
		Command:   command,
		Tool:      s.lastTool,
	}
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeInvalidArguments, err.Error(), err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
