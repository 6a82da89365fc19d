package service

import (
	"context"
	"fmt"
	"time"

	"membership-bot/internal/event"
	"membership-bot/internal/observability"
	"membership-bot/internal/repository"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Notifier delivers expiry reminders to buyers.
type Notifier interface {
	NotifyExpirySoon(ctx context.Context, ev event.ExpirySoon) error
}

type ExpiryService interface {
	// RunOnce notifies every unnotified subscription ending on the notice day.
	RunOnce(ctx context.Context) (int, error)
	// Start runs RunOnce now and then on schedule until ctx is done.
	Start(ctx context.Context, schedule string) error
}

const expiryRunTimeout = 5 * time.Minute

type expiryServiceImpl struct {
	subscriptionRepo repository.SubscriptionRepository
	notifier         Notifier
	noticeDays       int
	loc              *time.Location
	metrics          *observability.Metrics
	log              logrus.FieldLogger
	now              Clock
}

func NewExpiryService(
	subscriptionRepo repository.SubscriptionRepository,
	notifier Notifier,
	noticeDays int,
	loc *time.Location,
	metrics *observability.Metrics,
	log logrus.FieldLogger,
	now Clock,
) ExpiryService {
	return &expiryServiceImpl{
		subscriptionRepo: subscriptionRepo,
		notifier:         notifier,
		noticeDays:       noticeDays,
		loc:              loc,
		metrics:          metrics,
		log:              log,
		now:              now,
	}
}

func (s *expiryServiceImpl) RunOnce(ctx context.Context) (int, error) {
	today := s.now().In(s.loc)
	dayStart := time.Date(today.Year(), today.Month(), today.Day()+s.noticeDays, 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	subs, err := s.subscriptionRepo.ListExpiringAt(ctx, dayStart, dayEnd, true)
	if err != nil {
		return 0, fmt.Errorf("list expiring subscriptions: %w", err)
	}

	notified := 0
	for _, sub := range subs {
		log := s.log.WithFields(logrus.Fields{
			"buyer_id":   sub.BuyerID,
			"package_id": sub.PackageID,
			"end_at":     sub.EndAt,
		})

		err := s.notifier.NotifyExpirySoon(ctx, event.ExpirySoon{
			BuyerID:   sub.BuyerID,
			PackageID: sub.PackageID,
			EndAt:     sub.EndAt,
		})
		if err != nil {
			s.metrics.ExpiryNoticesTotal.WithLabelValues("failed").Inc()
			log.WithError(err).Warn("notify expiry soon")
			continue
		}

		if err := s.subscriptionRepo.MarkNotified(ctx, sub.BuyerID); err != nil {
			s.metrics.ExpiryNoticesTotal.WithLabelValues("failed").Inc()
			log.WithError(err).Error("mark subscription notified")
			continue
		}

		s.metrics.ExpiryNoticesTotal.WithLabelValues("sent").Inc()
		notified++
	}

	s.log.WithFields(logrus.Fields{
		"threshold":  dayStart.Format("2006-01-02"),
		"candidates": len(subs),
		"notified":   notified,
	}).Info("expiry check finished")

	return notified, nil
}

func (s *expiryServiceImpl) Start(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule expiry check %q: %w", schedule, err)
	}

	s.run(ctx)
	c.Start()
	s.log.WithField("schedule", schedule).Info("expiry poller started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("expiry poller stopped")
	return nil
}

// run is one scheduled cycle. Errors wait for the next cycle.
func (s *expiryServiceImpl) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, expiryRunTimeout)
	defer cancel()

	if _, err := s.RunOnce(runCtx); err != nil {
		s.log.WithError(err).Error("expiry check failed")
	}
}
