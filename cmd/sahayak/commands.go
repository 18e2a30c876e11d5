package main

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-sahayak/internal/config"
	"github.com/teslashibe/go-sahayak/internal/log"
	"github.com/teslashibe/go-sahayak/pkg/app"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "sahayak",
		Short: "Multilingual disaster-assistance chatbot",
		Long: `sahayak answers disaster-related questions in Hindi, Telugu, Tamil,
Bengali, Marathi, Malayalam, Kannada and English, by text or by voice.

Configuration is read from built-in defaults, then a YAML file (--config or
SAHAYAK_CONFIG), then .env, then the environment, then flags.

Examples:
  # Serve the HTTP API on port 5000
  GROQ_API_KEY=... sahayak serve

  # Chat in Hindi from the terminal
  sahayak cli --lang hi`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded into the environment")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newServeCmd(&g), newCLICmd(&g), newLanguagesCmd(&g))
	return root
}

// load reads the configuration and applies the global flags.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(config.Options{File: g.configFile, EnvFile: g.envFile})
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	log.Init(cfg.LogLevel)
	return cfg, nil
}

// start builds and initializes the app.
func start(ctx context.Context, cfg *config.Config) (*app.App, error) {
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Init(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}
	return a, nil
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		port         string
		noMicrophone bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and websocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if noMicrophone {
				cfg.STT.Microphone = false
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := start(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Shutdown()
			return a.Serve(ctx)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default $PORT or 5000)")
	cmd.Flags().BoolVar(&noMicrophone, "no-microphone", false, "disable server-side voice capture")
	return cmd
}

func newCLICmd(g *globalFlags) *cobra.Command {
	var (
		lang    string
		noSpeak bool
	)
	cmd := &cobra.Command{
		Use:   "cli",
		Short: "Chat interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := start(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Shutdown()
			return a.Console(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), lang, !noSpeak)
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "language code; prompts when empty")
	cmd.Flags().BoolVar(&noSpeak, "no-speak", false, "print replies without speaking them")
	return cmd
}

func newLanguagesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{File: g.configFile, EnvFile: g.envFile})
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return err
			}

			langs := catalog.Languages()
			sort.Slice(langs, func(i, j int) bool { return langs[i].Code < langs[j].Code })
			out := cmd.OutOrStdout()
			for _, l := range langs {
				fmt.Fprintf(out, "%-4s %-10s %-7s %s\n", l.Code, l.Name, l.Locale, l.Voice)
			}
			return nil
		},
	}
}
