package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"PositionSentinel/internal/alert"
	"PositionSentinel/internal/collector"
	"PositionSentinel/internal/levels"
	"PositionSentinel/internal/model"
	"PositionSentinel/internal/monitor"
	"PositionSentinel/internal/notifier"
	"PositionSentinel/internal/position"
	"PositionSentinel/internal/recorder"
	"PositionSentinel/internal/regime"
	"PositionSentinel/internal/signal"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the evaluation cycles: the intraday poll, the
// end-of-day summary, and the nightly reset.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Book       *position.Book
	Classifier *signal.Classifier
	Monitor    *monitor.Monitor
	Arbiter    *alert.Arbiter
	Regime     *regime.Detector
	Notifier   notifier.Notifier
	Recorder   recorder.Recorder
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, book *position.Book, cls *signal.Classifier, mon *monitor.Monitor, arb *alert.Arbiter, det *regime.Detector, n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Collector:  col,
		Book:       book,
		Classifier: cls,
		Monitor:    mon,
		Arbiter:    arb,
		Regime:     det,
		Notifier:   n,
		Recorder:   rec,
		Ctx:        ctx,
	}
}

// RegisterAll registers the poll, end-of-day, and nightly reset tasks.
func (s *Scheduler) RegisterAll(pollCron, eodCron, resetCron string) error {
	if _, err := s.Cron.AddFunc(pollCron, s.pollTask); err != nil {
		return fmt.Errorf("register poll task: %w", err)
	}
	if _, err := s.Cron.AddFunc(eodCron, s.eodTask); err != nil {
		return fmt.Errorf("register eod task: %w", err)
	}
	if _, err := s.Cron.AddFunc(resetCron, s.nightlyReset); err != nil {
		return fmt.Errorf("register nightly reset: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunPollNow executes one poll cycle immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunPollNow() {
	s.pollTask()
}

func (s *Scheduler) pollTask() {
	log.Println("[INFO] running poll cycle")
	currentRegime := s.Regime.Detect(s.Ctx)

	for _, symbol := range s.Book.Symbols() {
		if err := s.Ctx.Err(); err != nil {
			return
		}
		if err := s.evaluateSymbol(symbol, currentRegime, false); err != nil {
			log.Printf("[ERROR] evaluate %s: %v", symbol, err)
		}
	}
}

// evaluateSymbol runs one symbol through collection, classification,
// arbitration, delivery, and recording. force bypasses the cooldown.
func (s *Scheduler) evaluateSymbol(symbol, currentRegime string, force bool) error {
	quote, tech, err := s.Collector.Collect(s.Ctx, symbol)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	snap := s.Book.Snapshot(symbol, quote, tech, currentRegime)
	if snap == nil {
		return fmt.Errorf("symbol not in book")
	}

	var candidates []model.SignalCandidate
	if snap.Active() {
		stopPct, tp1Pct, tp2Pct := s.Book.Overrides(symbol)
		ov := levels.Overrides{StopPct: stopPct, TP1Pct: tp1Pct, TP2Pct: tp2Pct}
		candidates = s.Monitor.Evaluate(snap, ov)

		if err := s.Recorder.RecordHealth(&recorder.HealthSnapshot{
			Symbol:     symbol,
			State:      snap.State,
			Price:      snap.CurrentPrice,
			PnLPct:     snap.PnLPct(),
			Assessment: s.Monitor.Health(snap),
		}); err != nil {
			log.Printf("[ERROR] record health %s: %v", symbol, err)
		}
	} else {
		candidates = s.Classifier.Classify(snap, quote, currentRegime)
	}

	for _, cand := range candidates {
		admitted, ok := s.Arbiter.Admit(cand, force)
		if !ok {
			continue
		}
		delivered := true
		if err := notifier.SendWithRetry(s.Ctx, s.Notifier, notifier.FormatAlert(admitted), 3); err != nil {
			log.Printf("[ERROR] send alert %s %s/%s: %v", admitted.Symbol, admitted.Type, admitted.Subtype, err)
			delivered = false
		}
		if err := s.Recorder.RecordAlert(&admitted, delivered); err != nil {
			log.Printf("[ERROR] record alert: %v", err)
		}
	}
	return nil
}

func (s *Scheduler) eodTask() {
	log.Println("[INFO] running end-of-day summary")
	currentRegime := s.Regime.Detect(s.Ctx)

	rows := s.summaryRows(currentRegime, true)
	if err := notifier.SendWithRetry(s.Ctx, s.Notifier, notifier.FormatEODSummary(rows, s.Regime.Describe()), 3); err != nil {
		log.Printf("[ERROR] send eod summary: %v", err)
	}
}

// summaryRows collects the per-position summary lines, optionally
// recording each as an end-of-day row.
func (s *Scheduler) summaryRows(currentRegime string, record bool) []notifier.EODRow {
	var rows []notifier.EODRow
	for _, symbol := range s.Book.Symbols() {
		quote, tech, err := s.Collector.Collect(s.Ctx, symbol)
		if err != nil {
			log.Printf("[ERROR] eod collect %s: %v", symbol, err)
			continue
		}
		snap := s.Book.Snapshot(symbol, quote, tech, currentRegime)
		if snap == nil {
			continue
		}
		assessment := s.Monitor.Health(snap)
		rows = append(rows, notifier.EODRow{
			Symbol:         snap.Symbol,
			State:          snap.State,
			Price:          snap.CurrentPrice,
			PnLPct:         snap.PnLPct(),
			HealthScore:    assessment.Score,
			Rating:         assessment.Rating,
			PrimaryWarning: assessment.PrimaryWarning,
		})
		if record && snap.Active() {
			if err := s.Recorder.RecordEOD(&recorder.EODRecord{
				Symbol:       snap.Symbol,
				State:        snap.State,
				Close:        snap.CurrentPrice,
				PnLPct:       snap.PnLPct(),
				HealthScore:  assessment.Score,
				Rating:       string(assessment.Rating),
				MarketRegime: currentRegime,
			}); err != nil {
				log.Printf("[ERROR] record eod %s: %v", snap.Symbol, err)
			}
		}
	}
	return rows
}

// nightlyReset clears the cooldown slate and re-reads the book so
// manual edits to the positions file are picked up without a restart.
func (s *Scheduler) nightlyReset() {
	log.Println("[INFO] running nightly reset")
	s.Arbiter.ClearAll()
	if err := s.Book.Reload(); err != nil {
		log.Printf("[ERROR] reload position book: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch {
	case command == "/poll" || command == "查看持仓信号":
		s.pollTask()
		return ""
	case command == "/positions" || command == "查看持仓":
		currentRegime := s.Regime.Detect(s.Ctx)
		return notifier.FormatEODSummary(s.summaryRows(currentRegime, false), s.Regime.Describe())
	case strings.HasPrefix(command, "/health"):
		return s.healthCommand(strings.TrimSpace(strings.TrimPrefix(command, "/health")))
	case strings.HasPrefix(command, "/clear"):
		symbol := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(command, "/clear")))
		if symbol == "" {
			s.Arbiter.ClearAll()
			return "已清空所有冷却窗口"
		}
		s.Arbiter.Clear(symbol)
		return fmt.Sprintf("已清空 %s 的冷却窗口", symbol)
	default:
		return "可用命令:\n• /poll 立即轮询\n• /positions 查看持仓\n• /health <代码> 健康检查\n• /clear [代码] 重置冷却"
	}
}

func (s *Scheduler) healthCommand(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if symbol == "" {
		return "用法: /health <代码>"
	}
	currentRegime := s.Regime.Detect(s.Ctx)
	quote, tech, err := s.Collector.Collect(s.Ctx, symbol)
	if err != nil {
		return fmt.Sprintf("数据获取失败: %v", err)
	}
	snap := s.Book.Snapshot(symbol, quote, tech, currentRegime)
	if snap == nil {
		return fmt.Sprintf("%s 不在持仓或观察列表中", symbol)
	}
	return notifier.FormatHealthReport(symbol, s.Monitor.Health(snap))
}
