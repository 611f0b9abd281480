package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)

	p, err := defaultPaths()
	if err != nil {
		pslog.Ctx(ctx).With("err", err).Error("ripple cannot start")
		return 1
	}

	root := newRootCmd(p)
	root.SetArgs(os.Args[1:])
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type rootFlags struct {
	configPath  string
	session     string
	showPaths   bool
	showVersion bool
	mindless    bool
	noHistory   bool
}

func newRootCmd(p paths) *cobra.Command {
	var flags rootFlags
	v := newViper(p)

	root := &cobra.Command{
		Use:   "ripple [flags] [SOURCE...]",
		Short: "Stream, filter, parse and aggregate live command output and files",
		Long: `ripple follows one or more sources side by side. Each SOURCE is a
command line (quoted as one argument) or a path to a file. With no
sources, ripple opens a startup screen listing saved sessions.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "ripple %s (commit %s, built %s)\n", version, commit, buildTime)
				return nil
			}
			if flags.mindless {
				v.Set("poll-mode", "mindless")
			}
			if flags.noHistory {
				v.Set("history", false)
			}
			cfg, err := loadConfig(v, flags.configPath, p)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if flags.showPaths {
				printPaths(cmd, cfg, p)
				return nil
			}
			return run(cmd.Context(), cfg, flags.session, args)
		},
	}

	fs := root.Flags()
	fs.StringVarP(&flags.configPath, "config", "c", "", "config file (default is $HOME/.config/ripple/config.yml)")
	fs.StringVarP(&flags.session, "session", "s", "", "start the named saved session")
	fs.BoolVar(&flags.showPaths, "paths", false, "print config, data and log locations and exit")
	fs.BoolVar(&flags.showVersion, "version", false, "print version information")
	fs.BoolVar(&flags.mindless, "mindless", false, "poll at a fixed interval instead of adapting to the input rate")
	fs.BoolVar(&flags.noHistory, "no-history", false, "do not record or load input history")

	fs.Duration("poll-interval", 0, "fixed poll interval in mindless mode")
	fs.String("channel", "", "channel rendered at start: secondary or primary")
	fs.Int("aggregation-limit", 0, "top-N entries shown by Count aggregators")
	fs.String("data-dir", "", "directory holding patterns, sessions and history")
	fs.String("log-level", "", "log level: trace, debug, info, warn or error")
	fs.String("log-file", "", "runtime log file")
	fs.Bool("api", false, "serve the read-only status API")
	fs.String("api-addr", "", "status API listen address")

	for key, flag := range map[string]string{
		"poll-interval":     "poll-interval",
		"channel":           "channel",
		"aggregation-limit": "aggregation-limit",
		"data-dir":          "data-dir",
		"log-level":         "log-level",
		"log-file":          "log-file",
		"api-enabled":       "api",
		"api-addr":          "api-addr",
	} {
		// Lookup cannot fail for flags defined above.
		_ = v.BindPFlag(key, fs.Lookup(flag))
	}
	return root
}

func printPaths(cmd *cobra.Command, cfg appConfig, p paths) {
	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = p.Config
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config:   %s\n", configPath)
	fmt.Fprintf(out, "data:     %s\n", cfg.DataDir)
	fmt.Fprintf(out, "patterns: %s\n", filepath.Join(cfg.DataDir, "patterns"))
	fmt.Fprintf(out, "sessions: %s\n", filepath.Join(cfg.DataDir, "sessions"))
	fmt.Fprintf(out, "history:  %s\n", historyPath(cfg))
	fmt.Fprintf(out, "log:      %s\n", cfg.LogFile)
}
