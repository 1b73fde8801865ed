package scanner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"RangeScout/internal/collector"
	"RangeScout/internal/filter"
	"RangeScout/internal/model"
	"RangeScout/internal/symbols"
)

// DefaultWorkers bounds concurrent symbol fetches when none is configured.
const DefaultWorkers = 4

// ErrSuperseded is returned by Run when a newer scan started before this one finished.
var ErrSuperseded = errors.New("scan superseded by a newer request")

// ProgressFunc is called after each symbol completes, from worker goroutines.
type ProgressFunc func(done, total int, symbol model.Symbol)

// Scanner runs scans over a symbol universe. At most one scan is current:
// starting a new one cancels the previous and prevents it from publishing.
type Scanner struct {
	collector *collector.Collector
	workers   int
	logger    *zap.Logger
	clock     func() time.Time

	OnProgress ProgressFunc

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	latest atomic.Pointer[Report]
}

// New creates a Scanner. workers <= 0 uses DefaultWorkers.
func New(c *collector.Collector, workers int, logger *zap.Logger) *Scanner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{collector: c, workers: workers, logger: logger, clock: time.Now}
}

// Latest returns the most recently published report, or nil.
func (s *Scanner) Latest() *Report { return s.latest.Load() }

func validate(req model.ScanRequest) error {
	if len(req.Symbols) == 0 {
		return &symbols.EmptyInputError{}
	}
	switch req.Mode {
	case model.ModeLow, model.ModeHigh, model.ModeRetest:
	default:
		return fmt.Errorf("unknown scan mode %q", req.Mode)
	}
	for _, th := range []struct {
		name string
		v    float64
	}{
		{"proximity threshold", req.ProximityThresholdPct},
		{"retest tolerance", req.RetestTolerancePct},
		{"minimum bounce", req.MinBouncePct},
	} {
		if math.IsNaN(th.v) || th.v < 0 {
			return fmt.Errorf("%s must be a number >= 0, got %v", th.name, th.v)
		}
	}
	return nil
}

// begin registers a new generation and cancels the previous in-flight scan.
func (s *Scanner) begin(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	done := func() {
		s.mu.Lock()
		if s.gen == gen {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
	return ctx, gen, done
}

// publish stores report as latest only if gen is still current.
func (s *Scanner) publish(gen uint64, report *Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.latest.Store(report)
	return true
}

type outcome struct {
	result model.Result
	skip   *model.Skip
}

// Run executes one scan. It returns *symbols.EmptyInputError before any fetch
// when req has no symbols, ErrSuperseded when a newer Run started meanwhile,
// and the context error when ctx is cancelled by the caller.
func (s *Scanner) Run(ctx context.Context, req model.ScanRequest) (*Report, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	runCtx, gen, done := s.begin(ctx)
	defer done()

	now := req.Now
	if now.IsZero() {
		now = s.clock()
	}
	req.Now = now
	resolver := s.collector.Resolver

	report := &Report{
		ID:         uuid.NewString(),
		Mode:       req.Mode,
		Request:    req,
		Reference:  resolver.ReferencePeriod(now),
		Evaluation: resolver.EvaluationPeriod(now),
		StartedAt:  s.clock(),
	}
	s.logger.Info("scan started",
		zap.String("scan_id", report.ID),
		zap.String("mode", string(req.Mode)),
		zap.Int("symbols", len(req.Symbols)),
		zap.String("reference", report.Reference.String()),
		zap.String("evaluation", report.Evaluation.String()))

	outcomes := make([]outcome, len(req.Symbols))
	total := len(req.Symbols)
	var completed atomic.Int32

	semaphore := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, sym := range req.Symbols {
		wg.Add(1)
		go func(i int, sym model.Symbol) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-runCtx.Done():
				skip := collector.Classify(sym, runCtx.Err())
				outcomes[i] = outcome{skip: &skip}
				return
			}
			defer func() { <-semaphore }()

			res, err := s.collector.Collect(runCtx, sym, req.Mode, req.RetestTolerancePct, now)
			if err != nil {
				skip := collector.Classify(sym, err)
				outcomes[i] = outcome{skip: &skip}
				if runCtx.Err() == nil {
					s.logger.Warn("symbol skipped",
						zap.String("symbol", string(sym)),
						zap.String("reason", string(skip.Reason)),
						zap.Error(err))
				}
			} else {
				outcomes[i] = outcome{result: res}
			}

			n := int(completed.Add(1))
			if s.OnProgress != nil {
				s.OnProgress(n, total, sym)
			}
		}(i, sym)
	}
	wg.Wait()

	if !s.current(gen) {
		s.logger.Info("scan superseded", zap.String("scan_id", report.ID))
		return nil, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		if o.skip != nil {
			report.Skipped = append(report.Skipped, *o.skip)
			continue
		}
		report.Analyzed = append(report.Analyzed, o.result)
	}
	report.Matches = filter.Apply(report.Analyzed, filter.Criteria{
		Mode:                  req.Mode,
		ProximityThresholdPct: req.ProximityThresholdPct,
		RetestTolerancePct:    req.RetestTolerancePct,
		MinBouncePct:          req.MinBouncePct,
	})
	report.FinishedAt = s.clock()

	if !s.publish(gen, report) {
		s.logger.Info("scan superseded", zap.String("scan_id", report.ID))
		return nil, ErrSuperseded
	}
	s.logger.Info("scan finished",
		zap.String("scan_id", report.ID),
		zap.Int("analyzed", len(report.Analyzed)),
		zap.Int("matches", len(report.Matches)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Duration("took", report.Duration()))
	return report, nil
}

func (s *Scanner) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}
