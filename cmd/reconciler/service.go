package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/solmart/solmart-backend/internal/checkout"
	"github.com/solmart/solmart-backend/pkg/config"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/metrics"
)

const (
	jobName       = "checkout-reconciler"
	defaultPollMs = 500
	maxBackoff    = 10 * time.Second
	jitterWindow  = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type reconcileRunner interface {
	ReconcileBatch(ctx context.Context) (checkout.ReconcileStats, error)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Checkout   reconcileRunner
	Ledger     pinger
	DB         pinger
	JobMetrics *metrics.JobMetrics
}

type pinger interface {
	Ping(context.Context) error
}

// Service sweeps checkout attempts parked in needs_reconciliation until
// each one settles into an order, is retried, or is abandoned.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	checkout     reconcileRunner
	ledger       pinger
	db           pinger
	jobs         *metrics.JobMetrics
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Checkout == nil {
		return nil, errors.New("checkout service is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}

	pollMs := params.Config.Reconciler.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		checkout:     params.Checkout,
		ledger:       params.Ledger,
		db:           params.DB,
		jobs:         params.JobMetrics,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if s.ledger != nil {
		if err := pingDependency(ctx, s.logg, "ledger", s.ledger.Ping); err != nil {
			return err
		}
	}
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	if interval <= 0 {
		interval = time.Duration(defaultPollMs) * time.Millisecond
	}
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "reconciler context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "reconciler batch error", err)
			s.jobs.IncFailure(jobName)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	start := time.Now()
	stats, err := s.checkout.ReconcileBatch(ctx)
	s.jobs.ObserveDuration(jobName, time.Since(start))
	if err != nil {
		return false, err
	}

	processed := stats.Settled+stats.Retried+stats.Abandoned+stats.Failed > 0
	if processed {
		fields := map[string]any{
			"settled":   stats.Settled,
			"retried":   stats.Retried,
			"abandoned": stats.Abandoned,
			"failed":    stats.Failed,
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "reconciler batch processed")
	}
	s.jobs.IncSuccess(jobName)
	return processed, nil
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, floor, ceiling time.Duration) time.Duration {
	next := current * 2
	if next < floor {
		next = floor
	}
	if next > ceiling {
		next = ceiling
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if jitterWindow <= 0 {
		return d
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
