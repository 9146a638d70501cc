package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/user"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"pelosync/internal/auth"
	"pelosync/internal/config"
	"pelosync/internal/peloton"
	"pelosync/internal/store"
	"pelosync/internal/syncer"
	"pelosync/internal/tui"
	"pelosync/internal/zones"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("You need to add your Peloton API client id and an encryption key.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.json\n", configDir)
		return nil
	}

	setupLogging()

	// Open database
	db, err := store.Open(cfg.Peloton.EncryptionKey)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	cmd := "tui"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "connect":
		return runConnect(ctx, db, cfg, args)
	case "sync":
		return runSync(ctx, db, cfg)
	case "janitor":
		return runJanitor(db)
	case "zones":
		return runZones(db, cfg, args)
	case "tui":
		return runTUI(ctx, db, cfg)
	default:
		fmt.Printf("Unknown command %q.\n\n", cmd)
		fmt.Println("Usage: pelosync [connect|sync|janitor|zones|tui]")
		return nil
	}
}

// setupLogging routes structured logs to stderr so they do not fight
// with the TUI on stdout.
func setupLogging() {
	level := slog.LevelInfo
	if os.Getenv("PELOSYNC_DEBUG") != "" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// localUser identifies the connection row for this machine account.
func localUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "default"
}

func runConnect(ctx context.Context, db *store.Store, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	useCredentials := fs.Bool("credentials", false, "log in with username/password instead of the browser")
	fs.Parse(args)

	conn, err := db.CreateConnection(localUser())
	if err != nil {
		return fmt.Errorf("creating connection: %w", err)
	}

	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:    cfg.Peloton.ClientID,
		RedirectURL: fmt.Sprintf("http://localhost:%d/callback", cfg.Peloton.CallbackPort),
	})

	var token *auth.Token
	if *useCredentials {
		username, password, err := promptCredentials()
		if err != nil {
			return err
		}
		token, err = auth.AuthenticateWithCredentials(ctx, oauthCfg, username, password)
		if err != nil {
			var authErr *auth.AuthError
			if errors.As(err, &authErr) && authErr.Kind == auth.KindBadCredentials {
				fmt.Printf("Login failed: %s\n", authErr.Reason)
				return nil
			}
			return fmt.Errorf("credential login: %w", err)
		}
		if err := db.SaveCredentials(conn.ID, username, password); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}
	} else {
		fmt.Println("Opening browser for Peloton login...")
		token, err = auth.Authenticate(ctx, oauthCfg, cfg.Peloton.CallbackPort)
		if err != nil {
			return fmt.Errorf("authentication: %w", err)
		}
	}

	if err := db.SaveTokens(conn.ID, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
		return fmt.Errorf("saving tokens: %w", err)
	}

	// Resolve the remote account and activate the connection.
	client := peloton.NewClient(newTokenSource(db, conn, cfg, token))
	me, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("fetching identity: %w", err)
	}
	if err := db.ActivateConnection(conn.ID, me.ID); err != nil {
		return fmt.Errorf("activating connection: %w", err)
	}

	fmt.Printf("\nConnected as %s.\n", me.Username)
	return nil
}

func promptCredentials() (username, password string, err error) {
	fmt.Print("Peloton email: ")
	if _, err := fmt.Scanln(&username); err != nil {
		return "", "", fmt.Errorf("reading username: %w", err)
	}
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}
	return username, string(raw), nil
}

func runSync(ctx context.Context, db *store.Store, cfg *config.Config) error {
	orchestrator, _, err := buildServices(db, cfg)
	if err != nil {
		return err
	}

	result, err := orchestrator.Run(ctx, localUser())
	if errors.Is(err, store.ErrSyncInProgress) {
		fmt.Println("Another sync is already running for this account.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	fmt.Printf("Sync complete (%s): %d created, %d updated, %d skipped, %d failed, %d classes, %d sample series.\n",
		result.Mode, result.Created, result.Updated, result.Skipped, result.Failed,
		result.Classes, result.SampleSets)
	return nil
}

func runJanitor(db *store.Store) error {
	j := syncer.NewJanitor(db, slog.Default())
	recovered, swept, err := j.Run()
	if err != nil {
		return fmt.Errorf("janitor: %w", err)
	}
	fmt.Printf("Janitor: %d stale syncs recovered, %d expired locks swept.\n", recovered, swept)
	return nil
}

func runZones(db *store.Store, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("zones", flag.ExitOnError)
	periodFlag := fs.String("period", "month", "period: month, year, or all")
	fs.Parse(args)

	var period zones.Period
	switch *periodFlag {
	case "month":
		period = zones.PeriodMonth
	case "year":
		period = zones.PeriodYear
	case "all":
		period = zones.PeriodAll
	default:
		return fmt.Errorf("unknown period %q", *periodFlag)
	}

	conn, err := db.GetConnection(localUser())
	if errors.Is(err, store.ErrNoConnection) {
		fmt.Println("No connection found. Run 'pelosync connect' first.")
		return nil
	}
	if err != nil {
		return err
	}

	engine := zones.NewEngine(db, cfg)
	now := time.Now()

	power, err := engine.PowerDistribution(conn.ID, period, now)
	if err != nil {
		return fmt.Errorf("power distribution: %w", err)
	}
	pace, err := engine.PaceDistribution(conn.ID, period, now)
	if err != nil {
		return fmt.Errorf("pace distribution: %w", err)
	}

	printDistribution("Power zones (cycling)", power)
	printDistribution("Pace zones (running/walking)", pace)
	return nil
}

func printDistribution(title string, dist *zones.Distribution) {
	fmt.Printf("\n%s\n", title)
	if dist.TotalSeconds == 0 {
		fmt.Println("  no workouts in this period")
		return
	}
	for _, band := range dist.Bands {
		fmt.Printf("  Z%d %-16s %s  (%.0f%%)\n", band.Level, band.Name, band.Duration, band.Percent)
	}
	fmt.Printf("  %d workouts, %s total\n", dist.Workouts, zones.FormatSeconds(dist.TotalSeconds))
}

func runTUI(ctx context.Context, db *store.Store, cfg *config.Config) error {
	conn, err := db.GetConnection(localUser())
	if errors.Is(err, store.ErrNoConnection) {
		fmt.Println("No connection found. Run 'pelosync connect' first.")
		return nil
	}
	if err != nil {
		return err
	}

	orchestrator, engine, err := buildServices(db, cfg)
	if err != nil {
		return err
	}

	app := tui.NewApp(db, orchestrator, engine, localUser(), conn.ID)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// buildServices wires the token source, API client, orchestrator, and
// zone engine from the stored connection.
func buildServices(db *store.Store, cfg *config.Config) (*syncer.Orchestrator, *zones.Engine, error) {
	conn, err := db.GetConnection(localUser())
	if err != nil {
		return nil, nil, err
	}

	token := &auth.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.TokenExpiresAt,
	}
	client := peloton.NewClient(newTokenSource(db, conn, cfg, token))

	orchestrator := syncer.New(db, client, cfg, slog.Default())
	engine := zones.NewEngine(db, cfg)
	return orchestrator, engine, nil
}

// newTokenSource builds a refreshing token source that persists rotated
// tokens back to the connection row.
func newTokenSource(db *store.Store, conn *store.Connection, cfg *config.Config, token *auth.Token) *auth.TokenSource {
	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:    cfg.Peloton.ClientID,
		RedirectURL: fmt.Sprintf("http://localhost:%d/callback", cfg.Peloton.CallbackPort),
	})
	return auth.NewTokenSource(oauthCfg, token, func(t *auth.Token) error {
		return db.SaveTokens(conn.ID, t.AccessToken, t.RefreshToken, t.Expiry)
	})
}
