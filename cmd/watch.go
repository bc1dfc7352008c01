package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/cmd/utils"
	"github.com/statewallet/wallet-session/internal/coinjoin"
	"github.com/statewallet/wallet-session/internal/entities"
)

type watchConfig struct {
	sessionConfig
	PollIntervalSeconds int
	PollsPerSecond      int
	SignRetryAttempts   int
	MetricsPort         int
	AutoSign            bool
}

type watchCmd struct{}

func (c *watchCmd) Command() *cobra.Command {
	cfg := watchConfig{}
	cfgOpts := cfg.options()
	cfgOpts = append(cfgOpts,
		utils.PollIntervalOption(&cfg.PollIntervalSeconds),
		utils.PollsPerSecondOption(&cfg.PollsPerSecond),
		utils.SignRetryAttemptsOption(&cfg.SignRetryAttempts),
		utils.MetricsPortOption(&cfg.MetricsPort),
	)

	cmd := &cobra.Command{
		Use:               "watch <account>/<sub-account>",
		Short:             "Watch the CoinJoin rooms of an account and report their phases",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: utils.DefaultPersistentPreRunE(cfgOpts),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := parseIdentityArg(args[0])
			if err != nil {
				return err
			}
			return c.Run(cmd, cfg, identity)
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}
	cmd.Flags().BoolVar(&cfg.AutoSign, "sign", false, "Sign every room as soon as it is awaiting signatures")

	return cmd
}

func (c *watchCmd) Run(cmd *cobra.Command, cfg watchConfig, identity entities.AccountIdentity) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := newSession(cfg.sessionConfig)
	if err != nil {
		return err
	}
	defer sess.Close()

	if cfg.MetricsPort > 0 {
		go serveMetrics(ctx, cfg.MetricsPort, sess.metricsService.GetRegistry())
	}

	watcher, err := coinjoin.NewRoomWatcher(coinjoin.RoomWatcherConfig{
		Gateway:        sess.gateway,
		Reader:         sess.reader,
		MetricsService: sess.metricsService,
		PollInterval:   time.Duration(cfg.PollIntervalSeconds) * time.Second,
		PollsPerSecond: float64(cfg.PollsPerSecond),
	})
	if err != nil {
		return fmt.Errorf("creating room watcher: %w", err)
	}
	defer watcher.Stop()

	var signer *coinjoin.Signer
	if cfg.AutoSign {
		signer, err = coinjoin.NewSigner(sess.gateway, sess.reader, sess.appTracker, coinjoin.RetryPolicy{
			ExtraAttempts: cfg.SignRetryAttempts,
			Delay:         time.Second,
		})
		if err != nil {
			return fmt.Errorf("creating signer: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	log.Ctx(ctx).Infof("watching coinjoin rooms of %d/%d", identity.AccountNumber, identity.SubAccountNumber)
	err = watcher.Watch(ctx, identity, func(views []coinjoin.RoomView) {
		printRoomViews(out, views, time.Now())
		if signer == nil {
			return
		}
		for _, view := range views {
			if view.Phase.CanSign() && !signer.InFlight(view.Room.ID) {
				go signRoom(ctx, signer, identity, view.Room.ID)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("watching rooms: %w", err)
	}
	return nil
}

func signRoom(ctx context.Context, signer *coinjoin.Signer, identity entities.AccountIdentity, roomID string) {
	res, err := signer.Sign(ctx, identity, roomID)
	var conflictErr *coinjoin.StateConflictError
	switch {
	case err == nil && res != nil && res.SignedBlindedOutput != "":
		log.Ctx(ctx).Infof("signed room %s, blinded output %s", roomID, res.SignedBlindedOutput)
	case err == nil:
		log.Ctx(ctx).Infof("signed room %s", roomID)
	case errors.Is(err, coinjoin.ErrSignInFlight), errors.As(err, &conflictErr):
		log.Ctx(ctx).Debugf("not signing room %s: %v", roomID, err)
	default:
		log.Ctx(ctx).Errorf("signing room %s: %v", roomID, err)
	}
}

func printRoomViews(out io.Writer, views []coinjoin.RoomView, now time.Time) {
	fmt.Fprintf(out, "%s: %d room(s)\n", now.Format(time.RFC3339), len(views))
	for _, view := range views {
		line := fmt.Sprintf("  %s phase=%s signed=%t coordinator_status=%d", view.Room.ID, view.Phase, view.Signed, view.CoordinatorStatus)
		if remaining := view.Deadlines.Remaining(view.Phase, now); remaining > 0 {
			line += fmt.Sprintf(" remaining=%s", remaining.Round(time.Second))
		}
		if view.Room.Txid.Valid {
			line += " txid=" + view.Room.Txid.String
		}
		fmt.Fprintln(out, line)
	}
}

func serveMetrics(ctx context.Context, port int, registry *prometheus.Registry) {
	mux := chi.NewMux()
	mux.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Ctx(ctx).Errorf("shutting down metrics server: %v", err)
		}
	}()

	log.Ctx(ctx).Infof("serving metrics on :%d/metrics", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Ctx(ctx).Errorf("serving metrics: %v", err)
	}
}
