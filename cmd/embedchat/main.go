// ABOUTME: Entry point for the embedchat terminal client
// ABOUTME: Runs a widget instance against a chat backend using the TUI adapter

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/2389/embedchat/internal/analytics"
	"github.com/2389/embedchat/internal/api"
	"github.com/2389/embedchat/internal/config"
	"github.com/2389/embedchat/internal/kvstore"
	"github.com/2389/embedchat/internal/tui"
	"github.com/2389/embedchat/internal/widget"
)

// Overridden at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Best-effort .env loading; absence is fine
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "embedchat",
		Short:   "Embeddable chat widget engine",
		Version: version,
	}
	root.AddCommand(newChatCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newChatCmd() *cobra.Command {
	var (
		profilePath string
		scriptURL   string
		widgetID    string
		guestInfo   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the chat widget in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := resolveProfile(profilePath, scriptURL, widgetID, guestInfo)
			if err != nil {
				return err
			}
			return runChat(profile)
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "path to a profile YAML file")
	cmd.Flags().StringVar(&scriptURL, "script-url", "", "widget script URL (base URL is derived from its origin)")
	cmd.Flags().StringVar(&widgetID, "widget-id", "", "widget id to connect as")
	cmd.Flags().BoolVar(&guestInfo, "require-guest-info", false, "gate chat behind the guest form")
	return cmd
}

// resolveProfile merges a profile file with command-line overrides. With no
// profile the flags alone must describe the embed.
func resolveProfile(path, scriptURL, widgetID string, guestInfo bool) (*config.Profile, error) {
	if path != "" {
		return config.LoadProfile(path)
	}

	if scriptURL == "" || widgetID == "" {
		return nil, fmt.Errorf("either --profile or both --script-url and --widget-id are required")
	}

	attrs := map[string]string{"widget-id": widgetID}
	if guestInfo {
		attrs["require-guest-info"] = "true"
	}
	return &config.Profile{
		Widget: config.WidgetProfile{
			ScriptURL:  scriptURL,
			Attributes: attrs,
		},
		Store: config.StoreProfile{
			Driver: "sqlite",
			Path:   defaultIdentityPath(),
		},
	}, nil
}

// defaultIdentityPath returns the identity database location.
// Priority: XDG_DATA_HOME/embedchat > ~/.local/share/embedchat
func defaultIdentityPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join("data", "identity.db")
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "embedchat", "identity.db")
}

func runChat(profile *config.Profile) error {
	setupLogging(profile.Logging)

	cfg, err := config.FromAttributes(profile.Widget.Attributes, profile.Widget.ScriptURL)
	if err != nil {
		return err
	}

	identity, err := openIdentityStore(profile.Store)
	if err != nil {
		return fmt.Errorf("opening identity store: %w", err)
	}
	defer identity.Close()

	backend := api.NewClient(cfg.BaseURL, profile.API.Timeout, nil)
	sink := analytics.NewHTTPSink(cfg.BaseURL, nil)

	w := widget.New(cfg, hostEnvironment(), backend, identity, sink, nil)
	defer w.Shutdown()

	banner := color.New(color.FgCyan, color.Bold)
	banner.Printf("embedchat %s — widget %s @ %s\n", version, cfg.WidgetID, cfg.BaseURL)

	w.Bootstrap(context.Background())

	program := tea.NewProgram(tui.New(w), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running chat UI: %w", err)
	}
	return nil
}

func openIdentityStore(sp config.StoreProfile) (kvstore.Store, error) {
	switch sp.Driver {
	case "", "memory":
		return kvstore.NewMemoryStore(), nil
	case "sqlite":
		return kvstore.NewSQLiteStore(sp.Path)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: sp.RedisAddr})
		return kvstore.NewRedisStore(client, 0), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", sp.Driver)
	}
}

// hostEnvironment assembles the page metadata a browser would supply. A
// terminal has no page, so the fields describe the process instead.
func hostEnvironment() widget.Environment {
	hostname, _ := os.Hostname()
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	lang := os.Getenv("LANG")
	if lang == "" {
		lang = "en-US"
	}
	return widget.Environment{
		PageURL:   fmt.Sprintf("terminal://%s@%s", username, hostname),
		Referrer:  "",
		UserAgent: fmt.Sprintf("embedchat/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH),
		Language:  lang,
	}
}

func setupLogging(lp config.LoggingProfile) {
	level := slog.LevelInfo
	switch lp.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lp.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
