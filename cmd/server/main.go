package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/raffle-slots/internal/config"
	"github.com/DoyleJ11/raffle-slots/internal/draw"
	"github.com/DoyleJ11/raffle-slots/internal/events"
	"github.com/DoyleJ11/raffle-slots/internal/httpapi"
	"github.com/DoyleJ11/raffle-slots/internal/hub"
	"github.com/DoyleJ11/raffle-slots/internal/lobby"
	"github.com/DoyleJ11/raffle-slots/internal/logging"
	"github.com/DoyleJ11/raffle-slots/internal/store"
	"github.com/DoyleJ11/raffle-slots/internal/ws"
)

func main() {
	if err := run(); err != nil {
		// the logger may not exist yet
		os.Stderr.WriteString("raffle server: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() (err error) {
	if err := config.LoadDotenv(); err != nil {
		return err
	}
	cfg, err := config.Load(os.Getenv("RAFFLE_CONFIG"), os.Getenv)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	var pub events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(events.DefaultNATSConfig(cfg.NATSURL), log.Named("nats"))
		if err != nil {
			return err
		}
		pub = np
	}
	defer func() { err = multierr.Append(err, pub.Close()) }()

	pages, err := httpapi.NewPages()
	if err != nil {
		return err
	}
	draws := draw.NewService(st, draw.WithPublisher(pub), draw.WithLogger(log.Named("draw")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, func(ctx context.Context, raffleID int64, idle func(*lobby.Lobby)) *lobby.Lobby {
		return lobby.NewLobby(ctx, lobby.Config{
			RaffleID: raffleID,
			Drawer:   lobby.LocalDrawer{Service: draws},
			Tables:   pages.TableSource(st),
			Timing:   cfg.Slot.Timing,
			Mode:     cfg.Slot.Mode,
			Log:      log.Named("lobby"),
			Idle:     idle,
		})
	})

	handler := httpapi.SetupRoutes(httpapi.Deps{
		Store:  st,
		Draws:  draws,
		Pages:  pages,
		Admin:  httpapi.Admin{User: cfg.AdminUser, PasswordHash: cfg.AdminPasswordHash},
		Health: st,
		LiveTable: ws.Handler(h, st, ws.Options{
			OriginPatterns: cfg.CORSOrigins,
			Log:            log.Named("ws"),
		}),
		CORSOrigins: cfg.CORSOrigins,
		Log:         log.Named("http"),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("creation_enabled", cfg.CreationEnabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
