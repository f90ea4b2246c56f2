package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"research-chatter/internal/logging"
)

// DefaultSpec запускает отчет ежедневно в 21:00 UTC
const DefaultSpec = "0 21 * * *"

// ReportFunc формирует один отчет и возвращает путь к файлу
type ReportFunc func(ctx context.Context) (string, error)

// ErrNoReportFunc возвращается из RunNow, если функция отчета не задана
var ErrNoReportFunc = errors.New("report function not set")

// Scheduler управляет запланированными задачами
type Scheduler struct {
	mu         sync.Mutex
	cron       *cron.Cron
	spec       string
	ctx        context.Context
	cancel     context.CancelFunc
	reportFunc ReportFunc
	logger     *zap.Logger
	started    bool
}

// New создает новый планировщик. Пустое расписание заменяется DefaultSpec.
func New(spec string, logger *zap.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
		logger: logging.OrNop(logger),
	}
}

// SetReportFunction устанавливает функцию для генерации отчетов
func (s *Scheduler) SetReportFunction(f ReportFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportFunc = f
}

// RunNow немедленно формирует отчет
func (s *Scheduler) RunNow(ctx context.Context) (string, error) {
	s.mu.Lock()
	f := s.reportFunc
	s.mu.Unlock()
	if f == nil {
		return "", ErrNoReportFunc
	}
	return f(ctx)
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	s.logger.Info("triggered scheduled report", zap.String("spec", s.spec))
	path, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error("scheduled report failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled report written", zap.String("path", path))
}

// Start запускает планировщик. После Stop планировщик можно запустить снова:
// задачи и контекст создаются заново.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reportFunc == nil {
		s.logger.Warn("report function not set, scheduler will not generate reports")
		return nil
	}
	if s.started {
		return nil
	}

	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
		s.cron = cron.New(cron.WithLocation(time.UTC))
	}
	ctx := s.ctx
	if _, err := s.cron.AddFunc(s.spec, func() { s.runScheduled(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop останавливает планировщик и ждет завершения текущего отчета
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasStarted := s.started
	s.started = false
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	// блокировка уже снята: выполняющаяся задача берет ее в RunNow
	done := c.Stop()
	<-done.Done()
	cancel()
	if wasStarted {
		s.logger.Info("scheduler stopped")
	}
}

// IsRunning проверяет, запущен ли планировщик
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && len(s.cron.Entries()) > 0
}

// Next возвращает время следующего запуска или нулевое время, если планировщик остановлен
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
