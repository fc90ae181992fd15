package clan

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// DefaultDissolveFloor is the shortest delay before a scheduled destruction fires.
const DefaultDissolveFloor = 5 * time.Minute

// DissolutionScheduler arms one-shot destruction jobs keyed by clan ID.
// Thread-safe.
type DissolutionScheduler struct {
	sched gocron.Scheduler
	floor time.Duration
	now   func() time.Time

	mu   sync.Mutex
	jobs map[int32]uuid.UUID
}

// NewDissolutionScheduler creates a stopped scheduler. floor <= 0 uses DefaultDissolveFloor.
func NewDissolutionScheduler(floor time.Duration) (*DissolutionScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	if floor <= 0 {
		floor = DefaultDissolveFloor
	}
	return &DissolutionScheduler{
		sched: s,
		floor: floor,
		now:   time.Now,
		jobs:  make(map[int32]uuid.UUID, 8),
	}, nil
}

// Start begins running jobs.
func (d *DissolutionScheduler) Start() {
	d.sched.Start()
}

// Shutdown stops the scheduler and drops pending jobs.
func (d *DissolutionScheduler) Shutdown() error {
	if err := d.sched.Shutdown(); err != nil {
		return fmt.Errorf("shutting down dissolution scheduler: %w", err)
	}
	return nil
}

// Delay returns how long to wait for a dissolution due at the given time.
func (d *DissolutionScheduler) Delay(at time.Time) time.Duration {
	delay := at.Sub(d.now())
	if delay < d.floor {
		delay = d.floor
	}
	return delay
}

// Schedule arms fire to run once after Delay(at), replacing any job pending
// for the same clan.
func (d *DissolutionScheduler) Schedule(clanID int32, at time.Time, fire func()) error {
	delay := d.Delay(at)

	d.mu.Lock()
	defer d.mu.Unlock()

	if old, ok := d.jobs[clanID]; ok {
		if err := d.sched.RemoveJob(old); err != nil {
			slog.Debug("previous dissolution job already gone", "clan_id", clanID, "error", err)
		}
		delete(d.jobs, clanID)
	}

	var jobID uuid.UUID
	task := func() {
		d.mu.Lock()
		if d.jobs[clanID] == jobID {
			delete(d.jobs, clanID)
		}
		d.mu.Unlock()
		fire()
	}

	job, err := d.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(d.now().Add(delay))),
		gocron.NewTask(task),
		gocron.WithName("clan-dissolution-"+jobTag(clanID)),
		gocron.WithTags(jobTag(clanID)),
	)
	if err != nil {
		return fmt.Errorf("scheduling dissolution of clan %d: %w", clanID, err)
	}
	jobID = job.ID()
	d.jobs[clanID] = jobID

	slog.Info("clan dissolution scheduled", "clan_id", clanID, "delay", delay)
	return nil
}

// Cancel drops a pending job. Missing jobs are ignored.
func (d *DissolutionScheduler) Cancel(clanID int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.jobs[clanID]; !ok {
		return
	}
	d.sched.RemoveByTags(jobTag(clanID))
	delete(d.jobs, clanID)
}

// Pending reports whether a job is armed for the clan.
func (d *DissolutionScheduler) Pending(clanID int32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.jobs[clanID]
	return ok
}

func jobTag(clanID int32) string {
	return strconv.FormatInt(int64(clanID), 10)
}
