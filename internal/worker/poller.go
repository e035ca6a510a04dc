package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Poller runs ProcessPendingTransactions on an interval, as a backstop
// for lost AMQP messages.
type Poller struct {
	worker   *SyncWorker
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPoller(w *SyncWorker, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{worker: w, interval: interval}
}

// Start begins the polling loop. Returns an error if already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Pending sync poller started", "interval", p.interval)
	return nil
}

// Stop signals the loop and waits for the current batch to finish.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Pending sync poller stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Pending sync poller stop timed out")
		return ctx.Err()
	}
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.worker.ProcessPendingTransactions(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sync failed", "error", err)
			}
		}
	}
}
