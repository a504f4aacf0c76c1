package worker

import (
	"context"
	"time"

	"github.com/qloteam/Qloset-sub000/internal/service"
	"github.com/qloteam/Qloset-sub000/internal/util"

	"go.uber.org/zap"
)

// Sweeper reclaims stock held by abandoned PENDING orders. Every tick
// it cancels orders whose reservations passed their expiry, restoring
// variant stock through the same guarded cancel path the API uses.
type Sweeper struct {
	orders   *service.OrderService
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a new reservation sweeper
func NewSweeper(orders *service.OrderService, interval time.Duration) *Sweeper {
	return &Sweeper{
		orders:   orders,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs the sweep loop until the context is cancelled
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("Starting reservation sweeper",
		zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reservation sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			n, err := s.orders.ReclaimExpired(ctx)
			if err != nil {
				s.logger.Error("Reservation sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("Reclaimed expired reservations", zap.Int("orders", n))
			}
		}
	}
}
