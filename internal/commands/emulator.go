package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rubros-dev/rubros/internal/emulator"
)

const shutdownTimeout = 5 * time.Second

type emulatorOptions struct {
	addr        string
	dbPath      string
	seedPath    string
	reportTotal bool
}

func newEmulatorCommand() *cobra.Command {
	o := &emulatorOptions{}

	cmd := &cobra.Command{
		Use:   "emulator",
		Short: "Serve a local emulator of the line-item backend",
		Example: `  rubros emulator --seed testdata/seed.csv --report-total
  RUBROS_API_URL=http://localhost:8080 rubros accounts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openEmulatorStore(o.dbPath, o.seedPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					slog.Error("failed to close store", "error", err)
				}
			}()

			ln, err := net.Listen("tcp", o.addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", o.addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Emulator listening on http://%s\n", ln.Addr())
			return serveEmulator(ctx, ln, st, o.reportTotal)
		},
	}

	cmd.Flags().StringVar(&o.addr, "addr", "localhost:8080", "listen address")
	cmd.Flags().StringVar(&o.dbPath, "db", "rubros-emulator.db", "bbolt database path")
	cmd.Flags().StringVar(&o.seedPath, "seed", "", "CSV file of clients, line items and offers to load on start")
	cmd.Flags().BoolVar(&o.reportTotal, "report-total", false, "report totalGlobal on paginated listings")

	return cmd
}

func openEmulatorStore(dbPath, seedPath string) (*emulator.Store, error) {
	st, err := emulator.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if seedPath == "" {
		return st, nil
	}

	accounts, err := emulator.ReadSeedFile(seedPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if err := st.Load(accounts); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("seeding store: %w", err)
	}
	slog.Info("store seeded", "path", seedPath, "accounts", len(accounts))
	return st, nil
}

// serveEmulator serves until ctx is done, then shuts the server down.
func serveEmulator(ctx context.Context, ln net.Listener, st *emulator.Store, reportTotal bool) error {
	server := &http.Server{
		Handler:      emulator.NewRouter(st, emulator.Options{ReportTotal: reportTotal}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("starting emulator", "addr", ln.Addr().String())
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down emulator")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	slog.Info("emulator stopped")
	return nil
}
