package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"PriceSentinel/internal/aggregator"
	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/logger"
	"PriceSentinel/internal/metrics"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/store"
)

// Options are the fixed parameters of the ingestion and reporting cycle.
type Options struct {
	Location  *time.Location
	Precision int32
	Symbol    string
}

// Scheduler runs the poll cycle and answers report queries.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Store     store.Store
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Tracker   *DayTracker
	Options   Options
	Now       func() time.Time
	Ctx       context.Context

	// poll is the cycle wrapped in the recover and skip-if-running chain,
	// shared by cron ticks and RunNow.
	poll cron.Job
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, st store.Store, n notifier.Notifier, rec recorder.Recorder, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	cronLog := cron.VerbosePrintfLogger(logger.WithComponent("cron"))
	s := &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(opts.Location),
		),
		Collector: col,
		Store:     st,
		Notifier:  n,
		Recorder:  rec,
		Tracker:   NewDayTracker(opts.Location),
		Options:   opts,
		Now:       time.Now,
		Ctx:       ctx,
	}
	s.poll = cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).
		Then(cron.FuncJob(func() { _ = s.RunCycle(s.Ctx) }))
	return s
}

// Register adds the poll cycle to the cron schedule and resumes the day
// tracker from the report history.
func (s *Scheduler) Register(pollCron string) error {
	if _, err := s.Cron.AddJob(pollCron, s.poll); err != nil {
		return fmt.Errorf("register poll task: %w", err)
	}

	last, ok, err := s.Recorder.LastReportedDate()
	if err != nil {
		logger.WithComponent("scheduler").WithError(err).Warn("read last reported date")
	} else if ok {
		s.Tracker.Resume(time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, s.Options.Location))
	}
	return nil
}

// RunNow runs one poll cycle through the same guard as the cron ticks, so it
// never overlaps a scheduled cycle.
func (s *Scheduler) RunNow() {
	s.poll.Run()
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.WithComponent("scheduler").Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.WithComponent("scheduler").Info("scheduler stopped")
}

// RunCycle samples one price, appends it, and delivers the report for a day
// that closed since the previous cycle. Only store failures are returned; a
// failed fetch leaves a gap in the series and the cycle carries on.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	log := logger.WithComponent("scheduler").WithField("cycle_id", cycleID)
	now := s.Now()

	var cycleErr error
	evt := &recorder.FetchEvent{CycleID: cycleID, Source: s.Collector.Fetcher.Name()}

	obs, err := s.Collector.Sample(ctx)
	switch {
	case err != nil:
		log.WithError(err).Warn("price fetch failed, skipping append")
		evt.Status, evt.Error = "FETCH_ERROR", err.Error()
	default:
		evt.Price = obs.Price.String()
		err = s.Store.Append(obs)
		switch {
		case err == nil:
			evt.Status = "OK"
			log.WithField("price", evt.Price).Debug("observation appended")
		case errors.Is(err, store.ErrDuplicate):
			evt.Status = "DUPLICATE"
			log.WithField("timestamp", obs.Timestamp).Info("observation already logged")
		default:
			evt.Status, evt.Error = "STORE_ERROR", err.Error()
			log.WithError(err).Error("append observation")
			cycleErr = err
		}
	}
	if err := s.Recorder.RecordFetch(evt); err != nil {
		log.WithError(err).Error("record fetch event")
	}

	if day, due := s.Tracker.Claim(now); due {
		if err := s.deliverReport(ctx, log, day); err != nil {
			s.Tracker.Release()
			return errors.Join(cycleErr, err)
		}
		s.Tracker.Complete(now)
	}
	return cycleErr
}

func (s *Scheduler) deliverReport(ctx context.Context, log *logrus.Entry, day time.Time) error {
	out, text, err := s.Report(day)
	if err != nil {
		log.WithError(err).Error("build daily report")
		return err
	}
	outcome := "no_data"
	if out.HasData() {
		outcome = "bar"
	}
	metrics.ReportsSent.WithLabelValues(outcome).Inc()
	log.WithFields(logrus.Fields{"date": day.Format("2006-01-02"), "outcome": outcome}).Info("daily report ready")

	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.WithError(err).Error("send daily report")
	}
	if err := s.Recorder.RecordDailyReport(&recorder.DailyReport{Date: out.Date, Bar: out.Bar, Text: text}); err != nil {
		log.WithError(err).Error("record daily report")
	}
	return nil
}

// Series returns a snapshot of the full series and the corrupt-record count.
func (s *Scheduler) Series() (model.Series, int, error) {
	res, err := s.Store.ReadAll()
	if err != nil {
		return nil, 0, err
	}
	return res.Series, res.Skipped, nil
}

// Report aggregates and formats any calendar day on demand.
func (s *Scheduler) Report(date time.Time) (model.DayOutcome, string, error) {
	series, _, err := s.Series()
	if err != nil {
		return model.DayOutcome{}, "", err
	}
	out := aggregator.DailyBar(series, date, s.Options.Location)
	return out, notifier.FormatDailyReport(out, s.Options.Precision), nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/price":
		series, _, err := s.Series()
		if err != nil {
			return fmt.Sprintf("Price history unavailable: %v", err)
		}
		obs, ok := aggregator.Latest(series)
		if !ok {
			return "No price observed yet."
		}
		return notifier.FormatCurrentPrice(s.Options.Symbol, obs, s.Options.Precision, s.Options.Location)
	case "/report":
		date := s.Now()
		if len(fields) > 1 {
			d, err := time.ParseInLocation("2006-01-02", fields[1], s.Options.Location)
			if err != nil {
				return "Usage: /report [YYYY-MM-DD]"
			}
			date = d
		}
		_, text, err := s.Report(date)
		if err != nil {
			return fmt.Sprintf("Report unavailable: %v", err)
		}
		return text
	default:
		return helpText
	}
}

const helpText = "Available commands:\n• /price\n• /report [YYYY-MM-DD]"
