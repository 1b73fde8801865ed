package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"RangeScout/internal/model"
	"RangeScout/internal/notifier"
	"RangeScout/internal/scheduler"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled scans and answer Telegram commands",
		RunE:  runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDaemon(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	logger, err := newLogger(cfg.Log.Level, true)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("RangeScout starting")

	sc, err := newScanner(cfg, logger)
	if err != nil {
		return err
	}
	mode, _ := model.ParseMode(cfg.Scan.Mode)

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
	rec := openRecorder(cfg.Database.SQLitePath, logger)
	defer rec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The universe is re-read per scan so edits to the symbols file apply
	// without a restart.
	request := func(m model.Mode) (model.ScanRequest, error) {
		syms, err := cfg.Universe()
		if err != nil {
			return model.ScanRequest{}, err
		}
		return cfg.ScanRequest(m, syms), nil
	}

	sched := scheduler.NewScheduler(ctx, sc, tn, rec, request, mode, logger)
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	logger.Info("telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, scanning now", zap.String("mode", string(mode)))
		go sched.RunScanNow()
	}

	logger.Info("RangeScout is running", zap.String("cron", cfg.Schedule.ScanCron))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping")
	cancel()
	return nil
}
