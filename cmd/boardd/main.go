/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the scheduling board service. Handles
  configuration, dependency injection, and graceful shutdown.

COMMANDS:
  boardd serve              Run the HTTP service (also the bare default)
  boardd derive             Headless one-shot: ingest CSVs, print the
                            scheduled population (or, with --assign, the
                            placement export) to stdout

STARTUP SEQUENCE (serve):
  1. Load config file + BOARD_ env overrides
  2. Open the history store (SQLite when store.sqlite_path is set,
     in-memory otherwise)
  3. Build the board session over the configured lane layout
  4. Register Prometheus series, configure the router
  5. Start the server; SIGINT/SIGTERM drains for up to 30s

EXAMPLES:
  # Run with a file database
  boardd serve --config ./board.yaml

  # Derive Wednesday's day-shift board without a server
  boardd derive --config ./board.yaml \
      --roster roster.csv --vacations vacations.csv \
      --date 2024-06-05 --shift day

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: File format and defaults
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pxt/board-engine/api"
	"github.com/pxt/board-engine/board"
	memstore "github.com/pxt/board-engine/board/store"
	"github.com/pxt/board-engine/config"
	"github.com/pxt/board-engine/logger"
	"github.com/pxt/board-engine/metrics"
	"github.com/pxt/board-engine/roster"
	"github.com/pxt/board-engine/schedule"
	"github.com/pxt/board-engine/store/sqlite"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "boardd",
	Short: "Workforce scheduling board service",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE:  runServe,
}

var (
	deriveDate   string
	deriveShift  string
	deriveFiles  = map[string]*string{}
	deriveKinds  = []string{"roster", "swaps-out", "swaps-in", "vet-vto", "vacations", "labor-share"}
	deriveTarget int
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Ingest CSVs and print the derived board as CSV",
	RunE:  runDerive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "board.yaml", "configuration file")
	rootCmd.AddCommand(serveCmd)

	deriveCmd.Flags().StringVar(&deriveDate, "date", "", "board date (YYYY-MM-DD)")
	deriveCmd.Flags().StringVar(&deriveShift, "shift", "day", "shift type: day, night or both")
	deriveCmd.Flags().IntVar(&deriveTarget, "assign", 0, "auto-assign this many stations before exporting")
	for _, kind := range deriveKinds {
		p := new(string)
		deriveFiles[kind] = p
		deriveCmd.Flags().StringVar(p, kind, "", kind+" CSV path")
	}
	rootCmd.AddCommand(deriveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openHistory picks SQLite or memory from the config.
func openHistory(cfg *config.Config) (board.HistoryStore, error) {
	if cfg.Store.SQLitePath == "" {
		return memstore.NewMemory(), nil
	}
	return sqlite.New(cfg.Store.SQLitePath)
}

func buildSession(cfg *config.Config, hist board.HistoryStore) (*board.Session, error) {
	log := logger.New(cfg.Logging, "board")
	return board.NewSession(cfg.Board.Lanes, cfg.Policy(), cfg.Quarter.Initial, hist, log)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Logging, "main")

	hist, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer hist.Close()

	session, err := buildSession(cfg, hist)
	if err != nil {
		return fmt.Errorf("build session: %w", err)
	}

	sink, err := metrics.NewSink()
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	handler := api.NewHandler(session, sink, cfg.AssignOptions(), hist)
	handler.QuarterLabels = cfg.Quarter.Labels
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func runDerive(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if deriveDate == "" {
		return fmt.Errorf("--date is required")
	}

	hist := memstore.NewMemory()
	session, err := buildSession(cfg, hist)
	if err != nil {
		return fmt.Errorf("build session: %w", err)
	}

	for _, kind := range deriveKinds {
		path := *deriveFiles[kind]
		if path == "" {
			continue
		}
		if err := ingestFile(session, kind, path); err != nil {
			return fmt.Errorf("ingest %s: %w", kind, err)
		}
	}
	session.SetDate(deriveDate, schedule.ParseShiftType(deriveShift))

	// With --assign the placements are the output; without it, the
	// scheduled-population listing is.
	if deriveTarget > 0 {
		opts := cfg.AssignOptions()
		opts.TargetStations = deriveTarget
		session.ApplyAssign(session.PreviewAssign(opts))
		return board.WriteSnapshotCSV(os.Stdout, session.Snapshot())
	}
	return board.WriteScheduleCSV(os.Stdout, session.Date(), string(session.Shift()), session.Badges())
}

func ingestFile(session *board.Session, kind, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := roster.ReadTable(f)
	if err != nil {
		return err
	}
	switch kind {
	case "roster":
		session.SetRoster(roster.DecodeRoster(table))
	case "swaps-out":
		session.SetSwapOuts(roster.DecodeSwaps(table))
	case "swaps-in":
		session.SetSwapIns(roster.DecodeSwaps(table))
	case "vet-vto":
		session.SetVetVto(roster.DecodeVetVto(table))
	case "vacations":
		session.SetVacations(roster.DecodeVacations(table))
	case "labor-share":
		session.SetLaborShares(roster.DecodeLaborShares(table))
	}
	return nil
}
