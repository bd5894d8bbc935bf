package sweeper

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/pkg/config"
	"github.com/skillhub/skillhub/pkg/telemetry"
)

// Sweeper periodically revokes premium status from users whose last payment
// is older than the validity window
type Sweeper struct {
	repo      *db.Repository
	interval  time.Duration
	batchSize int
	days      int
	now       func() time.Time
	logger    *zap.Logger

	expired metric.Int64Counter
}

// New creates a sweeper
func New(repo *db.Repository, cfg *config.SweeperConfig, logger *zap.Logger) *Sweeper {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	days := cfg.PremiumDays
	if days <= 0 {
		days = 30
	}
	return &Sweeper{
		repo:      repo,
		interval:  interval,
		batchSize: batchSize,
		days:      days,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(zap.String("component", "sweeper")),
		expired:   telemetry.Int64Counter(telemetry.MetricPremiumExpired, "Premium memberships revoked by the sweeper"),
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
// Sweep failures are logged and the loop carries on.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("Starting premium sweeper",
		zap.Duration("interval", s.interval),
		zap.Int("premium_days", s.days),
		zap.Int("batch_size", s.batchSize))

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Premium sweep failed", zap.Error(err))
		}

		s.wait(ctx, s.interval)
		if ctx.Err() != nil {
			s.logger.Info("Premium sweeper stopped")
			return ctx.Err()
		}
	}
}

// SweepOnce revokes every lapsed premium membership and returns how many
// users changed
func (s *Sweeper) SweepOnce(ctx context.Context) (total int64, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sweeper.sweep")
	defer func() {
		span.SetAttributes(attribute.Int64("expired", total))
		telemetry.EndSpan(span, err)
	}()

	started := s.now()
	cutoff := started.AddDate(0, 0, -s.days)

	total, err = db.NewUserRepository(s.repo).ExpirePremium(ctx, cutoff, s.batchSize, func(ids []uint) {
		s.logger.Debug("Premium batch expired", zap.Int("users", len(ids)))
	})
	if total > 0 {
		s.expired.Add(ctx, total)
	}
	if err != nil {
		return total, err
	}

	s.logger.Info("Premium sweep finished",
		zap.Int64("expired", total),
		zap.Time("cutoff", cutoff),
		zap.Duration("took", s.now().Sub(started)))
	return total, nil
}

// wait blocks for d or until ctx is done
func (s *Sweeper) wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
