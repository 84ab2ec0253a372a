package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/DoyleJ11/raffle-slots/internal/config"
	"github.com/DoyleJ11/raffle-slots/internal/logging"
	"github.com/DoyleJ11/raffle-slots/internal/slot"
)

func main() {
	var (
		server      = flag.String("server", "http://localhost:8080", "raffle server origin")
		raffleID    = flag.Int64("raffle", 0, "raffle id")
		elimination = flag.Bool("elimination", false, "take a ticket from the drawn participant")
		twoOfThree  = flag.Bool("two-of-three", false, "two matching lanes are enough to win")
		level       = flag.String("level", "soft", "draw level: soft, half or hard")
		repeat      = flag.Bool("repeat", false, "keep spinning until there is a winner")
		cfgPath     = flag.String("config", os.Getenv("RAFFLE_CONFIG"), "optional YAML file with slot timing")
		logLevel    = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	if *raffleID <= 0 {
		fmt.Fprintln(os.Stderr, "slot: -raffle is required")
		flag.Usage()
		os.Exit(2)
	}

	log, err := logging.New(*logLevel, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "slot:", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	slotCfg, err := config.LoadSlot(*cfgPath)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	req := slot.NewHTTPRequester(*server, nil)
	ctl := slot.NewController(*raffleID, req, slot.NewTerminalPresenter(os.Stdout),
		slot.WithTiming(slotCfg.Timing),
		slot.WithLogger(log),
		slot.WithTables(req),
		slot.WithMode(slot.Mode{Elimination: *elimination, TwoOfThree: *twoOfThree, Level: *level}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := ctl.Spin
	if *repeat {
		run = ctl.Repeat
	}
	err = run(ctx)
	fmt.Println()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("slot run failed", zap.Error(err))
		os.Exit(1)
	}
}
