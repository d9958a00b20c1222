package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/taskboard/internal/adapters/server"
	servercommon "github.com/evanschultz/taskboard/internal/adapters/server/common"
	"github.com/evanschultz/taskboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/config"
	"github.com/evanschultz/taskboard/internal/platform"
	"github.com/evanschultz/taskboard/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
	Send(tea.Msg)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg server.Config, deps server.Dependencies) error {
	return server.Run(ctx, cfg, deps)
}

// main handles main.
func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

// run executes the command tree with explicit args and writers.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	appName    string
	devMode    bool
}

// newRootCommand builds the taskboard command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{appName: platform.DefaultAppName}
	if envApp := strings.TrimSpace(os.Getenv("TASKBOARD_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TASKBOARD_DEV_MODE"); ok {
		defaultDevMode = envDev
	}

	root := &cobra.Command{
		Use:   "taskboard",
		Short: "A drag-and-drop kanban board for the terminal",
		Long: `taskboard opens an interactive kanban board. Drag cards between columns with the
mouse, or drive the same board over HTTP and MCP with "taskboard serve".`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newServeCommand(opts, stderr),
		newPathsCommand(opts, stdout),
		newInitCommand(opts, stdout),
	)
	return root
}

// newServeCommand builds the serve subcommand.
func newServeCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides := serveOverrides{}
			if cmd.Flags().Changed("http") {
				overrides.httpBind = httpBind
			}
			if cmd.Flags().Changed("api-endpoint") {
				overrides.apiEndpoint = apiEndpoint
			}
			if cmd.Flags().Changed("mcp-endpoint") {
				overrides.mcpEndpoint = mcpEndpoint
			}
			return runServe(cmd.Context(), opts, overrides, stderr)
		},
	}
	defaults := config.Default()
	cmd.Flags().StringVar(&httpBind, "http", defaults.Server.Bind, "HTTP listen address")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", defaults.Server.APIEndpoint, "HTTP API base endpoint")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", defaults.Server.MCPEndpoint, "MCP streamable HTTP endpoint")
	return cmd
}

// newPathsCommand builds the paths subcommand.
func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", resolveConfigPath(opts, paths))
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// newInitCommand builds the init subcommand.
func newInitCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			configPath := resolveConfigPath(opts, paths)
			written, err := config.WriteDefault(configPath, config.Default())
			if err != nil {
				return fmt.Errorf("write default config: %w", err)
			}
			if !written {
				_, _ = fmt.Fprintf(stdout, "config already exists: %s\n", configPath)
				return nil
			}
			_, _ = fmt.Fprintf(stdout, "wrote %s\n", configPath)
			return nil
		},
	}
}

// resolvePaths resolves per-user paths for the configured app name.
func resolvePaths(opts *rootOptions) (platform.Paths, error) {
	paths, err := platform.Resolve(platform.HostEnv(), opts.appName, opts.devMode)
	if err != nil {
		return platform.Paths{}, fmt.Errorf("resolve paths: %w", err)
	}
	return paths, nil
}

// resolveConfigPath applies the flag, then the env override, then the per-user default.
func resolveConfigPath(opts *rootOptions, paths platform.Paths) string {
	if path := strings.TrimSpace(opts.configPath); path != "" {
		return path
	}
	if envPath := strings.TrimSpace(os.Getenv("TASKBOARD_CONFIG")); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// appRuntime bundles everything a command flow needs once startup succeeds.
type appRuntime struct {
	cfg        config.Config
	defaults   config.Config
	configPath string
	logger     *runtimeLogger
	repo       *sqlite.Repository
	svc        *app.Service
}

// startRuntime loads config, opens log sinks and the activity ledger, and builds the service.
func startRuntime(opts *rootOptions, command string, stderr io.Writer) (*appRuntime, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}
	configPath := resolveConfigPath(opts, paths)
	defaults := config.Default()
	cfg, err := config.Load(configPath, defaults)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}

	var devLogPath string
	if opts.devMode && cfg.Logging.DevFile.Enabled {
		devLogPath, err = devLogFilePath(cfg.Logging.DevFile.Dir, paths, opts.appName, time.Now())
		if err != nil {
			return nil, err
		}
	}
	logger, err := newRuntimeLogger(stderr, opts.appName, cfg.Logging, devLogPath)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the board is active.
		logger.SetConsoleEnabled(false)
	}
	rt := &appRuntime{
		cfg:        cfg,
		defaults:   defaults,
		configPath: configPath,
		logger:     logger,
	}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "log_dir", paths.LogDir)
	logger.Info("configuration loaded", "config_path", configPath, "log_level", cfg.Logging.Level, "columns", len(cfg.Board.Columns))
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	var ledger app.ActivityLedger
	if cfg.Activity.Enabled {
		logger.Info("opening sqlite activity ledger")
		repo, err := sqlite.OpenInMemory()
		if err != nil {
			logger.Error("sqlite open failed", "err", err)
			rt.Close(stderr)
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		rt.repo = repo
		ledger = repo
		logger.Info("sqlite activity ledger ready", "migrations", "ensured")
	}

	seed, err := app.BuildBoard(toSeedColumns(cfg.Board.Columns), time.Now().UTC())
	if err != nil {
		rt.Close(stderr)
		return nil, fmt.Errorf("build seed board: %w", err)
	}
	svc, err := app.NewService(seed, ledger, uuid.NewString, nil, app.ServiceConfig{
		DefaultColumnTitle: cfg.Board.DefaultColumnTitle,
		DefaultTaskTitle:   cfg.Board.DefaultTaskTitle,
	})
	if err != nil {
		rt.Close(stderr)
		return nil, fmt.Errorf("create board service: %w", err)
	}
	rt.svc = svc
	logger.Debug("application service initialized", "columns", len(seed.Columns), "tasks", len(seed.Tasks), "activity", cfg.Activity.Enabled)
	return rt, nil
}

// Close releases the ledger and log sinks.
func (rt *appRuntime) Close(stderr io.Writer) {
	if rt == nil {
		return
	}
	if rt.repo != nil {
		if err := rt.repo.Close(); err != nil {
			rt.logger.Warn("sqlite close failed", "err", err)
		}
	}
	if closeErr := rt.logger.Close(); closeErr != nil && rt.logger.shouldLogToSink(rt.logger.consoleSink) {
		// Keep TUI shutdown quiet on the terminal when console logging is intentionally muted.
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
	}
}

// runTUI runs the interactive board.
func runTUI(ctx context.Context, opts *rootOptions, stderr io.Writer) error {
	rt, err := startRuntime(opts, "tui", stderr)
	if err != nil {
		return err
	}
	defer rt.Close(stderr)
	logger := rt.logger
	logger.Info("command flow start", "command", "tui")

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := tui.NewModel(
		rt.svc,
		tui.WithTitle(opts.appName),
		tui.WithRuntimeConfig(toTUIRuntimeConfig(rt.cfg)),
		tui.WithActivityLimit(rt.cfg.Activity.Limit),
	)
	p := programFactory(m)

	if rt.cfg.UI.WatchConfig {
		watcher, err := config.NewWatcher(rt.configPath, func() {
			logger.Info("runtime config reload requested", "config_path", rt.configPath)
			reloaded, err := loadRuntimeConfig(rt.configPath, rt.defaults)
			if err != nil {
				logger.Error("runtime config reload failed", "config_path", rt.configPath, "err", err)
			} else {
				logger.Info("runtime config reload complete", "config_path", rt.configPath)
			}
			p.Send(tui.ConfigReloaded(reloaded, err))
		})
		if err != nil {
			logger.Warn("config watcher unavailable", "config_path", rt.configPath, "err", err)
		} else {
			defer func() {
				if closeErr := watcher.Close(); closeErr != nil {
					logger.Warn("config watcher close failed", "err", closeErr)
				}
			}()
			go watcher.Run(ctx, func(err error) {
				logger.Warn("config watcher error", "err", err)
			})
			logger.Debug("config watcher started", "config_path", rt.configPath)
		}
	}

	logger.Info("starting tui program loop")
	if _, err := p.Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// serveOverrides carries serve flags the user set explicitly.
type serveOverrides struct {
	httpBind    string
	apiEndpoint string
	mcpEndpoint string
}

// runServe runs the serve subcommand flow.
func runServe(ctx context.Context, opts *rootOptions, overrides serveOverrides, stderr io.Writer) error {
	rt, err := startRuntime(opts, "serve", stderr)
	if err != nil {
		return err
	}
	defer rt.Close(stderr)
	logger := rt.logger
	logger.Info("command flow start", "command", "serve")

	cfg := server.Config{
		HTTPBind:      rt.cfg.Server.Bind,
		APIEndpoint:   rt.cfg.Server.APIEndpoint,
		MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
		ServerName:    opts.appName,
		ServerVersion: version,
	}
	if overrides.httpBind != "" {
		cfg.HTTPBind = overrides.httpBind
	}
	if overrides.apiEndpoint != "" {
		cfg.APIEndpoint = overrides.apiEndpoint
	}
	if overrides.mcpEndpoint != "" {
		cfg.MCPEndpoint = overrides.mcpEndpoint
	}
	logger.Info("serving board", "http", cfg.HTTPBind, "api_endpoint", cfg.APIEndpoint, "mcp_endpoint", cfg.MCPEndpoint)

	if err := serveCommandRunner(ctx, cfg, server.Dependencies{
		Board: servercommon.NewAppServiceAdapter(rt.svc),
	}); err != nil {
		logger.Error("command flow failed", "command", "serve", "err", err)
		return fmt.Errorf("run serve command: %w", err)
	}
	logger.Info("command flow complete", "command", "serve")
	return nil
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// loadRuntimeConfig loads runtime-configurable options from disk.
func loadRuntimeConfig(configPath string, defaults config.Config) (tui.RuntimeConfig, error) {
	cfg, err := config.Load(configPath, defaults)
	if err != nil {
		return tui.RuntimeConfig{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	return toTUIRuntimeConfig(cfg), nil
}

// toTUIRuntimeConfig maps persisted config values into runtime model options.
func toTUIRuntimeConfig(cfg config.Config) tui.RuntimeConfig {
	return tui.RuntimeConfig{
		ShowDescriptions: cfg.UI.ShowDescriptions,
		MarkdownWrap:     cfg.UI.MarkdownWrap,
	}
}

// toSeedColumns maps configured columns onto the seed board input.
func toSeedColumns(in []config.ColumnConfig) []app.SeedColumn {
	out := make([]app.SeedColumn, 0, len(in))
	for _, column := range in {
		tasks := make([]app.SeedTask, 0, len(column.Tasks))
		for _, task := range column.Tasks {
			tasks = append(tasks, app.SeedTask{
				ID:          task.ID,
				Title:       task.Title,
				Description: task.Description,
			})
		}
		out = append(out, app.SeedColumn{ID: column.ID, Title: column.Title, Tasks: tasks})
	}
	return out
}
