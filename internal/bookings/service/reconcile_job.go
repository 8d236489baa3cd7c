package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "clubschedule/internal/bookings/errors"
	"clubschedule/internal/bookings/repository"
	"clubschedule/pkg/config"
	"clubschedule/pkg/model"

	"github.com/robfig/cron/v3"
)

const ReconcileLeaseName = "reconcile-slots"

// Reconciler is the part of ConsistencyManager the job drives.
type Reconciler interface {
	Reconcile(ctx context.Context, from, to time.Time) (*model.ReconcileResult, error)
}

// ReconcileJob re-projects every slot in a window around now. A lease keeps
// replicas from running it at the same time.
type ReconcileJob struct {
	reconciler Reconciler
	leases     repository.LeaseRepository
	owner      string
	cfg        *config.Config
	now        func() time.Time
}

func NewReconcileJob(reconciler Reconciler, leases repository.LeaseRepository, owner string, cfg *config.Config) *ReconcileJob {
	return &ReconcileJob{
		reconciler: reconciler,
		leases:     leases,
		owner:      owner,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Window is [now-LookBack, now+LookAhead).
func (j *ReconcileJob) Window() (time.Time, time.Time) {
	now := j.now().UTC()
	return now.Add(-j.cfg.ReconcileLookBack), now.Add(j.cfg.ReconcileLookAhead)
}

// RunOnce returns (nil, nil) when another replica holds the lease.
func (j *ReconcileJob) RunOnce(ctx context.Context) (*model.ReconcileResult, error) {
	ctx, cancel := context.WithTimeout(ctx, j.cfg.ReconcileTimeout)
	defer cancel()

	if err := j.leases.Acquire(ctx, ReconcileLeaseName, j.owner, j.cfg.ReconcileTimeout); err != nil {
		if errors.Is(err, bookingserrors.ErrLeaseHeld) {
			j.cfg.Log.Info("Reconciliation skipped, lease held elsewhere", "owner", j.owner)
			return nil, nil
		}
		return nil, err
	}
	defer func() {
		if err := j.leases.Release(context.WithoutCancel(ctx), ReconcileLeaseName, j.owner); err != nil {
			j.cfg.Log.Warn("Failed to release reconcile lease", "owner", j.owner, "error", err)
		}
	}()

	from, to := j.Window()
	start := time.Now()
	result, err := j.reconciler.Reconcile(ctx, from, to)
	if err != nil {
		j.cfg.Log.Error("Reconciliation failed", "from", from, "to", to, "error", err)
		return nil, err
	}

	j.cfg.Log.Info("Reconciliation finished",
		"from", from,
		"to", to,
		"scanned", result.Scanned,
		"repaired", result.Repaired,
		"failed", result.Failed,
		"duration", time.Since(start),
	)
	return result, nil
}

// Schedule registers the job on c. Overlapping runs in this process are skipped.
func (j *ReconcileJob) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		_, _ = j.RunOnce(context.Background())
	}))
	return c.AddJob(spec, job)
}
