// Package sweeper auto-completes reservations whose slot time has
// passed. It replaces the manually run maintenance script with a cron
// schedule inside the server process.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"vehicle-reserve-backend/internal/metrics"
	"vehicle-reserve-backend/internal/repository"
)

// Sweeper finds PENDING and CONFIRMED reservations in the past and
// marks them COMPLETED. Running it twice in a row is harmless: the
// second pass finds nothing to update.
type Sweeper struct {
	Reservations *repository.ReservationRepo
	Metrics      *metrics.Metrics
	Log          zerolog.Logger

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

func New(res *repository.ReservationRepo, m *metrics.Metrics, log zerolog.Logger) *Sweeper {
	return &Sweeper{Reservations: res, Metrics: m, Log: log, Now: time.Now}
}

// Run executes one sweep pass and returns how many reservations were
// completed. The past/future decision is made in Go because dates are
// stored as plain strings and the slot only carries a clock time.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	rows, err := s.Reservations.ListSweepable(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sweepable: %w", err)
	}

	now := s.Now()
	var past []uint64
	for _, r := range rows {
		at, err := time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.StartTime, now.Location())
		if err != nil {
			s.Log.Warn().Uint64("reservation_id", r.ID).Str("date", r.Date).Str("start_time", r.StartTime).Msg("unparseable reservation time, skipping")
			continue
		}
		if now.After(at) {
			past = append(past, r.ID)
		}
	}
	if len(past) == 0 {
		return 0, nil
	}

	n, err := s.Reservations.CompleteByIDs(ctx, past)
	if err != nil {
		return 0, fmt.Errorf("complete: %w", err)
	}
	if n > 0 {
		s.Metrics.SweepCompleted.Add(float64(n))
		s.Log.Info().Int64("completed", n).Msg("sweep completed past reservations")
	}
	return n, nil
}

// Start runs one sweep immediately, then keeps sweeping on spec (cron
// expression or @every duration). The immediate pass catches
// reservations that lapsed while the process was down. Returns the
// cron runner so the caller can stop it on shutdown.
func (s *Sweeper) Start(spec string) (*cron.Cron, error) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			s.Log.Error().Err(err).Msg("sweep failed")
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, run); err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	run()
	c.Start()
	return c, nil
}
