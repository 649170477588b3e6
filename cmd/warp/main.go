// Command warp is the warpsockets terminal client.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gschussler/warpsockets/internal/app"
	"github.com/gschussler/warpsockets/internal/config"
)

var (
	flagServer string
	flagUser   string
	flagColor  string
	flagConfig string
	flagLog    string
)

var rootCmd = &cobra.Command{
	Use:   "warp",
	Short: "Realtime lobby chat over websockets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("join", "")
	},
}

var joinCmd = &cobra.Command{
	Use:   "join [lobby]",
	Short: "Join an existing lobby",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("join", lobbyArg(args))
	},
}

var createCmd = &cobra.Command{
	Use:   "create [lobby]",
	Short: "Create a new lobby and join it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("create", lobbyArg(args))
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServer, "server", "", "warpd base URL (e.g. http://127.0.0.1:8085)")
	flags.StringVar(&flagUser, "user", "", "username")
	flags.StringVar(&flagColor, "color", "", "message color (hex)")
	flags.StringVar(&flagConfig, "config", defaultConfigPath(), "config file path")
	flags.StringVar(&flagLog, "log", "", "debug log file (the TUI owns the terminal)")

	rootCmd.AddCommand(joinCmd, createCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(action, lobbyName string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagServer != "" {
		cfg.Server.URL = flagServer
	}
	if flagUser != "" {
		cfg.User.Name = flagUser
	}
	if flagColor != "" {
		cfg.User.Color = flagColor
	}
	if flagLog != "" {
		cfg.UI.LogFile = flagLog
	}

	logger, closeLog, err := newLogger(cfg.UI.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	m := app.New(cfg, logger, action, cfg.User.Name, lobbyName)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// newLogger writes to the configured file, or discards when none is set.
func newLogger(path string) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	logger := zerolog.New(f).With().Timestamp().Logger()
	return logger, func() { f.Close() }, nil
}

func lobbyArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.config/warp/config.yaml"
}
