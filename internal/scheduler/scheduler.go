package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"RangeScout/internal/model"
	"RangeScout/internal/notifier"
	"RangeScout/internal/recorder"
	"RangeScout/internal/scanner"
)

// Sender delivers formatted reports.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// RequestFunc builds the scan request for mode from current configuration.
type RequestFunc func(mode model.Mode) (model.ScanRequest, error)

// Scheduler manages cron-driven scans and bot commands.
type Scheduler struct {
	Cron        *cron.Cron
	Scanner     *scanner.Scanner
	Notifier    Sender
	Recorder    recorder.Recorder
	Request     RequestFunc
	DefaultMode model.Mode
	ReportRows  int
	Logger      *zap.Logger
	Ctx         context.Context

	wg sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, sender Sender, rec recorder.Recorder, req RequestFunc, mode model.Mode, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Scanner:     sc,
		Notifier:    sender,
		Recorder:    rec,
		Request:     req,
		DefaultMode: mode,
		ReportRows:  notifier.DefaultReportRows,
		Logger:      logger,
		Ctx:         ctx,
	}
}

// Register adds the periodic scan task.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, func() { s.scanTask(s.DefaultMode) }); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running scans.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.Logger.Info("scheduler stopped")
}

// RunScanNow executes a scan in the default mode immediately (RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask(s.DefaultMode)
}

// Wait blocks until scans started by commands have finished.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) scanTask(mode model.Mode) {
	s.Logger.Info("running scan task", zap.String("mode", string(mode)))
	req, err := s.Request(mode)
	if err != nil {
		s.Logger.Error("build scan request", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ Scan not started: %v", err))
		return
	}

	report, err := s.Scanner.Run(s.Ctx, req)
	switch {
	case errors.Is(err, scanner.ErrSuperseded):
		s.Logger.Info("scan superseded by a newer one", zap.String("mode", string(mode)))
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		s.Logger.Error("scan failed", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ Scan failed: %v", err))
		return
	}

	s.trySend(notifier.FormatScanReport(report, s.ReportRows))
	if err := s.Recorder.RecordScan(report); err != nil {
		s.Logger.Error("record scan", zap.String("scan_id", report.ID), zap.Error(err))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Telegram appends @botname in group chats.
	cmd := strings.SplitN(fields[0], "@", 2)[0]

	switch cmd {
	case "/scan":
		mode := s.DefaultMode
		if len(fields) > 1 {
			m, err := model.ParseMode(fields[1])
			if err != nil {
				return err.Error()
			}
			mode = m
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.scanTask(mode)
		}()
		return fmt.Sprintf("⏳ Scan started (%s). Any scan still running is cancelled.", mode)
	case "/last":
		report := s.Scanner.Latest()
		if report == nil {
			return "No scan has completed yet."
		}
		return notifier.FormatScanReport(report, s.ReportRows)
	case "/history":
		runs, err := s.Recorder.RecentRuns(10)
		if err != nil {
			s.Logger.Error("load history", zap.Error(err))
			return "❌ Could not load scan history."
		}
		return notifier.FormatRuns(runs)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
