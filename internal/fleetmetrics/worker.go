package fleetmetrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Source reports the lounge figures at push time.
type Source interface {
	FleetSnapshot() Snapshot
}

type Worker struct {
	log      *zap.Logger
	source   Source
	gauges   *Gauges
	pusher   Pusher
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(log *zap.Logger, source Source, gauges *Gauges, pusher Pusher, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Worker{
		log:      log.Named("fleetmetrics"),
		source:   source,
		gauges:   gauges,
		pusher:   pusher,
		interval: interval,
	}
}

// PushOnce refreshes the gauges and ships them.
func (w *Worker) PushOnce(ctx context.Context) error {
	w.gauges.Update(w.source.FleetSnapshot())
	return w.pusher.Push(ctx, w.gauges.Registry())
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		if err := w.PushOnce(ctx); err != nil {
			w.log.Warn("initial fleet metrics push failed", zap.Error(err))
		}
		for {
			select {
			case <-ticker.C:
				if err := w.PushOnce(ctx); err != nil {
					w.log.Warn("periodic fleet metrics push failed", zap.Error(err))
				}
			case <-ctx.Done():
				w.log.Info("stopping fleet metrics worker")
				return
			}
		}
	}()
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
