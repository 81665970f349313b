package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swarmlink.ai/internal/transport/observer"
)

var (
	serveAddr    string
	serveNoIndex bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Play a game in real time and stream it to observers",
	Long: `Steps the arena at the tuning tick rate and serves
  GET /observer/bootstrap  arena parameters
  GET /observer/ws         SUBSCRIBE, then one TICK message per tick
  GET /healthz`,
	Args: cobra.NoArgs,
	RunE: serveGame,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "http listen address")
	serveCmd.Flags().BoolVar(&serveNoIndex, "no-index", false, "skip the sqlite index")
}

func serveGame(cmd *cobra.Command, args []string) error {
	tune, err := loadTuning()
	if err != nil {
		return err
	}
	s, err := openSession(tune, !serveNoIndex, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("close run", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/observer/", observer.NewServer(s.world, s.id, s.log.Named("observer")).Handler())
	srv := &http.Server{Addr: serveAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.world.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err == nil {
			// Game over: take the server down with the world.
			stop()
		}
		return err
	})
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", serveAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
