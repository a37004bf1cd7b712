package order

import (
	"context"
	"fmt"
	"time"

	"foodorder-be/internal/logger"
	"foodorder-be/internal/metrics"
	"foodorder-be/internal/model"

	"go.uber.org/zap"
)

const (
	maxSyncAttempts = 10
	syncBatchSize   = 100
)

// Propagator copies a committed change onto the twin order record. Delivery
// happens right after the primary commit; anything that fails stays in
// twin_syncs and is replayed by Run.
type Propagator struct {
	repo    Repository
	metrics *metrics.Recorder
}

func NewPropagator(repo Repository, rec *metrics.Recorder) *Propagator {
	return &Propagator{repo: repo, metrics: rec}
}

// Deliver applies each sync and records the outcome. It never fails the caller.
func (p *Propagator) Deliver(ctx context.Context, syncs ...model.TwinSync) int {
	applied := 0
	for _, s := range syncs {
		if p.deliverOne(ctx, s) {
			applied++
		}
	}
	return applied
}

func (p *Propagator) deliverOne(ctx context.Context, s model.TwinSync) bool {
	log := logger.FromCtx(ctx).With(
		zap.String("sync_id", s.ID),
		zap.String("kind", string(s.Kind)),
		zap.String("target", string(s.Target)),
		zap.String("order_id", s.OrderID),
	)

	// changes to one order land in commit order; a later sync waits in
	// twin_syncs until the ones before it are delivered or abandoned
	blocked, err := p.repo.HasOlderPendingSync(ctx, s, maxSyncAttempts)
	if err != nil {
		log.Warn("could not check earlier twin syncs", zap.Error(err))
		return false
	}
	if blocked {
		log.Info("twin sync queued behind an earlier one")
		return false
	}

	err = p.Apply(ctx, s)
	p.metrics.SyncAttempted(ctx, string(s.Kind), string(s.Target), err == nil)

	if err != nil {
		if s.Attempts+1 >= maxSyncAttempts {
			log.Error("twin sync abandoned", zap.Int("attempts", s.Attempts+1), zap.Error(err))
		} else {
			log.Warn("twin sync deferred", zap.Int("attempts", s.Attempts+1), zap.Error(err))
		}
		if mErr := p.repo.MarkSyncRetry(ctx, s.ID, err.Error()); mErr != nil {
			log.Error("failed to record twin sync retry", zap.Error(mErr))
		}
		return false
	}

	if err := p.repo.MarkSyncDone(ctx, s.ID); err != nil {
		// the row will be replayed; Apply is idempotent
		log.Error("failed to mark twin sync done", zap.Error(err))
	}
	return true
}

// Apply performs the twin write for one sync. A sync whose record is not newer
// than the twin's copy is skipped, so replays and late retries never roll the
// twin back.
func (p *Propagator) Apply(ctx context.Context, s model.TwinSync) error {
	switch s.Target {
	case model.TargetRestaurant:
		return p.applyToRestaurant(ctx, s)
	case model.TargetUser:
		return p.applyToUser(ctx, s)
	}
	return fmt.Errorf("unknown sync target %q", s.Target)
}

// supersedes reports whether incoming should replace held on target. Equal
// revisions mean both copies changed without seeing each other; the
// restaurant's copy wins that tie on both sides.
func supersedes(incoming, held *model.OrderRecord, target model.SyncTarget) bool {
	if target == model.TargetUser {
		return incoming.Revision >= held.Revision
	}
	return incoming.Revision > held.Revision
}

func (p *Propagator) applyToRestaurant(ctx context.Context, s model.TwinSync) error {
	if s.Record == nil {
		return fmt.Errorf("%s sync %s has no record", s.Kind, s.ID)
	}
	rest, err := p.repo.GetRestaurant(ctx, s.RestaurantID)
	if err != nil {
		return err
	}

	switch s.Kind {
	case model.SyncCreate:
		if rest.FindOrder(s.OrderID) != nil {
			return nil
		}
		rest.AddOrder(*s.Record.Snapshot())

	case model.SyncStatus, model.SyncEdit:
		o := rest.FindOrder(s.OrderID)
		if o == nil {
			return ErrTwinNotFound
		}
		if !supersedes(s.Record, o, s.Target) {
			p.skipStale(ctx, s, o)
			return nil
		}
		*o = *s.Record.Snapshot()

	default:
		return fmt.Errorf("unknown sync kind %q", s.Kind)
	}

	return p.repo.SaveRestaurant(ctx, rest)
}

func (p *Propagator) applyToUser(ctx context.Context, s model.TwinSync) error {
	if s.Kind != model.SyncStatus {
		return fmt.Errorf("unsupported sync kind %q for user", s.Kind)
	}
	if s.Record == nil {
		return fmt.Errorf("%s sync %s has no record", s.Kind, s.ID)
	}
	if s.UserEmail == "" {
		return ErrTwinNotFound
	}

	u, err := p.repo.GetUserByEmail(ctx, s.UserEmail)
	if err != nil {
		return err
	}

	uo := u.FindOrder(s.OrderID)
	if uo == nil && s.OrderNumber != "" {
		uo = u.FindOrderByNumber(s.OrderNumber)
	}
	if uo == nil {
		return ErrTwinNotFound
	}
	if !supersedes(s.Record, &uo.OrderRecord, s.Target) {
		p.skipStale(ctx, s, &uo.OrderRecord)
		return nil
	}

	rec := s.Record.Snapshot()
	rec.OrderID = uo.OrderID
	uo.OrderRecord = *rec

	return p.repo.SaveUser(ctx, u)
}

func (p *Propagator) skipStale(ctx context.Context, s model.TwinSync, held *model.OrderRecord) {
	logger.FromCtx(ctx).Info("stale twin sync skipped",
		zap.String("sync_id", s.ID),
		zap.String("order_id", s.OrderID),
		zap.Int("sync_revision", s.Record.Revision),
		zap.Int("twin_revision", held.Revision),
		zap.String("twin_status", string(held.Status)),
	)
}

// applyEdit changes the user's own copy; the restaurant copy receives the
// resulting record.
func applyEdit(o *model.OrderRecord, s model.TwinSync) {
	if s.Items != nil {
		o.SetItems(s.Items)
	}
	if s.Address != "" {
		o.Customer.Address = s.Address
	}
	if s.Phone != "" {
		o.Customer.Phone = s.Phone
	}
	o.Status = model.StatusPending
}

// Reconcile replays one batch of undelivered syncs and reports how many landed.
func (p *Propagator) Reconcile(ctx context.Context) (int, error) {
	pending, err := p.repo.PendingSyncs(ctx, syncBatchSize, maxSyncAttempts)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return p.Deliver(ctx, pending...), nil
}

// Run reconciles every interval until ctx is cancelled.
func (p *Propagator) Run(ctx context.Context, interval time.Duration) error {
	log := logger.FromCtx(ctx).With(zap.String("worker", "twin-reconciler"))
	log.Info("twin reconciler started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("twin reconciler stopped")
			return nil
		case <-ticker.C:
			n, err := p.Reconcile(ctx)
			if err != nil {
				log.Error("twin reconcile pass failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("twin records reconciled", zap.Int("applied", n))
			}
		}
	}
}
