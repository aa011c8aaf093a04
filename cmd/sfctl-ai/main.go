package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/atinylittleshell/sfctl-ai/internal/appupdate"
	"github.com/atinylittleshell/sfctl-ai/internal/chat"
	"github.com/atinylittleshell/sfctl-ai/internal/classify"
	"github.com/atinylittleshell/sfctl-ai/internal/config"
	"github.com/atinylittleshell/sfctl-ai/internal/confirm"
	"github.com/atinylittleshell/sfctl-ai/internal/console"
	"github.com/atinylittleshell/sfctl-ai/internal/core"
	"github.com/atinylittleshell/sfctl-ai/internal/history"
	"github.com/atinylittleshell/sfctl-ai/internal/llm"
	"github.com/atinylittleshell/sfctl-ai/internal/render"
	"github.com/atinylittleshell/sfctl-ai/internal/shell"
)

var BUILD_VERSION = "dev"

const longHelp = `sfctl-ai - an AI assistant that drives a live shell session

Describe what you want in plain language. The assistant proposes commands,
read-only ones run straight away and everything else asks for your approval.
Type /exit or press Ctrl+D to leave.

Configuration is read from ~/.sfctl-ai/config.yaml, SFCTL_AI_* environment
variables and the flags below, in increasing order of precedence.`

// rootFlags holds values that override the config file.
type rootFlags struct {
	configPath    string
	provider      string
	model         string
	baseURL       string
	shell         string
	shellPath     string
	logLevel      string
	alwaysConfirm bool
	noHistory     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "sfctl-ai",
		Short:        "AI assistant that runs shell commands with your approval",
		Long:         longHelp,
		Version:      BUILD_VERSION,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			logger, err := initializeLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() // Flush any buffered log entries

			logger.Info("-------- new sfctl-ai session --------", zap.Any("args", os.Args))

			// Result is picked up by the welcome notice of the next session
			appupdate.CheckForUpdate(cmd.Context(), BUILD_VERSION, core.LatestVersionFile(), logger, appupdate.DefaultUpdater{})

			err = runChat(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			if err != nil {
				logger.Error("unhandled error", zap.Error(err))
			}
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.sfctl-ai/config.yaml)")
	pf.StringVar(&flags.provider, "provider", "", "model provider: gemini or openai")
	pf.StringVar(&flags.model, "model", "", "model name")
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL for OpenAI-compatible endpoints")
	pf.StringVar(&flags.shell, "shell", "", "shell to drive: pwsh or bash")
	pf.StringVar(&flags.shellPath, "shell-path", "", "path to the shell executable")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&flags.alwaysConfirm, "always-confirm", false, "ask before every command, including read-only ones")
	pf.BoolVar(&flags.noHistory, "no-history", false, "do not record commands in the audit ledger")

	root.AddCommand(newClassifyCmd(flags))
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newUpdateCmd())

	return root
}

// loadConfig layers the config file, the environment and changed flags.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	path := flags.configPath
	if path == "" {
		path = core.ConfigFile()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	changed := cmd.Flags().Changed
	if changed("provider") {
		cfg.Provider = flags.provider
	}
	if changed("model") {
		cfg.Model = flags.model
	}
	if changed("base-url") {
		cfg.BaseURL = flags.baseURL
	}
	if changed("shell") {
		cfg.Shell = flags.shell
	}
	if changed("shell-path") {
		cfg.ShellPath = flags.shellPath
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if flags.alwaysConfirm {
		cfg.Confirm = config.ConfirmAlways
	}
	if flags.noHistory {
		cfg.History = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}
	if BUILD_VERSION == "dev" {
		level = zap.DebugLevel
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(level)
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}

	// Logs only go to file so they never interleave with the conversation.
	// Use `tail -f ~/.sfctl-ai/sfctl-ai.log` to monitor logs in real-time
	return loggerConfig.Build()
}

func newTransport(ctx context.Context, cfg *config.Config, apiKey string, logger *zap.Logger) (llm.Transport, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAI(llm.OpenAIOptions{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Logger:  logger,
		}), nil
	default:
		return llm.NewGemini(ctx, llm.GeminiOptions{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Logger:  logger,
		})
	}
}

// runChat wires the conversation loop to the terminal and runs it until the
// operator leaves or ctx is cancelled.
func runChat(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *zap.Logger) error {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return err
	}

	transport, err := newTransport(ctx, cfg, apiKey, logger)
	if err != nil {
		return err
	}

	dialect, err := shell.DialectByName(cfg.Shell, cfg.ShellPath)
	if err != nil {
		return err
	}

	// The session outlives ctx so an interrupted command can finish before Close.
	session, err := shell.Open(context.WithoutCancel(ctx), shell.Options{
		Dialect: dialect,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("cannot open %s session: %w", dialect.Name(), err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("error closing shell session", zap.Error(err))
		}
	}()

	renderer := render.New(out, render.Options{
		Width:     terminalWidth(out),
		WrapWidth: cfg.WrapWidth,
		Spinner:   isTerminal(out),
	})

	var recorder chat.Recorder
	if cfg.History {
		ledger, err := history.NewManager(core.HistoryFile(), logger)
		if err != nil {
			logger.Warn("command ledger unavailable", zap.Error(err))
		} else {
			defer ledger.Close()
			recorder = ledger
		}
	}

	input := console.NewReader(in, logger)

	orchestrator := chat.New(chat.Options{
		Transport:     transport,
		Shell:         session,
		ShellName:     dialect.Name(),
		Classify:      classify.ForDialect(dialect.Name()),
		Gate:          confirm.NewGate(input, renderer, logger),
		Input:         input,
		Display:       renderer,
		Recorder:      recorder,
		SystemPrompt:  llm.SystemPrompt(dialect.Name()),
		Model:         cfg.ModelName(),
		AlwaysConfirm: cfg.AlwaysConfirm(),
		Logger:        logger,
	})

	renderer.RenderWelcome(dialect.Name(), cfg.ModelName())
	if latest := appupdate.Notice(BUILD_VERSION, core.LatestVersionFile()); latest != "" {
		renderer.RenderSystemMessage(fmt.Sprintf("sfctl-ai %s is available, run `sfctl-ai update` to install it", latest))
	}

	err = orchestrator.Run(ctx)
	if errors.Is(err, context.Canceled) {
		renderer.RenderSystemMessage("interrupted")
		return nil
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) func() int {
	return func() int {
		f, ok := w.(*os.File)
		if !ok {
			return 0
		}
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			return 0
		}
		return width
	}
}
