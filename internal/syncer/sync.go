// Package syncer pulls a connected account's workout history from the
// remote platform into the local store: class templates first, then
// workout instances, then per-second performance samples.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pelosync/internal/auth"
	"pelosync/internal/config"
	"pelosync/internal/peloton"
	"pelosync/internal/store"
)

const (
	// incrementalTolerance backs the cutoff off slightly so records
	// landing during the previous run are not missed.
	incrementalTolerance = 10 * time.Second

	// consecutiveOldLimit stops an incremental walk once this many
	// records in a row predate the cutoff. The list arrives roughly
	// newest first, but not strictly, so one old record is not proof
	// the rest are.
	consecutiveOldLimit = 5

	// classLockTTL bounds how long a class template fetch may hold its
	// per-class lock before another worker may steal it.
	classLockTTL = 120 * time.Second

	// sampleFetchers bounds the parallel performance graph downloads.
	sampleFetchers = 4

	// failureCooldown keeps a failed connection from being retried
	// immediately by a scheduler.
	failureCooldown = 30 * time.Minute
)

// Result summarizes one sync run.
type Result struct {
	Mode        string // "full" or "incremental"
	Created     int    // new workout instances
	Updated     int    // re-upserted existing instances
	Skipped     int    // records passed over (old, lock miss, no class)
	Failed      int    // records abandoned after retries
	Classes     int    // class templates fetched this run
	SampleSets  int    // workouts whose sample series was stored
	Halted      bool   // run stopped early (early exit or auth loss)
}

// Orchestrator runs sync for one connection at a time.
type Orchestrator struct {
	store  *store.Store
	client *peloton.Client
	cfg    *config.Config
	log    *slog.Logger
	now    func() time.Time
}

// New creates a sync orchestrator.
func New(s *store.Store, client *peloton.Client, cfg *config.Config, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		store:  s,
		client: client,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// sampleJob is a workout whose performance graph still needs fetching.
type sampleJob struct {
	workoutID string
}

// Run executes one sync for the local user's connection. Concurrent runs
// for the same connection are refused with store.ErrSyncInProgress; the
// caller decides whether that is an error.
func (o *Orchestrator) Run(ctx context.Context, localUser string) (*Result, error) {
	conn, err := o.store.GetConnection(localUser)
	if err != nil {
		return nil, err
	}
	if !conn.Active {
		return nil, fmt.Errorf("connection for %s is not active", localUser)
	}

	startedAt := o.now()
	if err := o.store.BeginSync(conn.ID, startedAt); err != nil {
		return nil, err
	}

	result := &Result{Mode: "full"}
	var cutoff time.Time
	if conn.LastSyncAt != nil {
		result.Mode = "incremental"
		cutoff = conn.LastSyncAt.Add(-incrementalTolerance)
	}
	o.log.Info("sync starting", "user", localUser, "mode", result.Mode)

	runErr := o.run(ctx, conn, cutoff, result)

	if ferr := o.store.FinishSync(conn.ID, runErr == nil, o.now(), failureCooldown); ferr != nil {
		o.log.Error("finishing sync", "user", localUser, "error", ferr)
		if runErr == nil {
			runErr = ferr
		}
	}

	o.log.Info("sync finished", "user", localUser, "mode", result.Mode,
		"created", result.Created, "updated", result.Updated,
		"skipped", result.Skipped, "failed", result.Failed,
		"classes", result.Classes, "sample_sets", result.SampleSets,
		"halted", result.Halted, "error", runErr)
	return result, runErr
}

func (o *Orchestrator) run(ctx context.Context, conn *store.Connection, cutoff time.Time, result *Result) error {
	me, err := o.fetchIdentity(ctx, conn)
	if err != nil {
		return o.handleAuthLoss(conn, result, err)
	}

	jobs, err := o.walkWorkouts(ctx, conn, me, cutoff, result)
	if err != nil {
		return o.handleAuthLoss(conn, result, err)
	}

	o.fetchSamples(ctx, result, jobs)
	return nil
}

// fetchIdentity resolves the remote user and records the current FTP.
func (o *Orchestrator) fetchIdentity(ctx context.Context, conn *store.Connection) (*peloton.User, error) {
	var me *peloton.User
	err := withRetry(ctx, o.cfg.Sync.MaxRetries, func(ctx context.Context) error {
		var err error
		me, err = o.client.Me(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching identity: %w", err)
	}

	if conn.RemoteUserID == "" {
		if err := o.store.ActivateConnection(conn.ID, me.ID); err != nil {
			return nil, err
		}
		conn.RemoteUserID = me.ID
	}

	if me.CyclingFTP > 0 {
		today := o.now().In(easternTime).Format("2006-01-02")
		if err := o.store.RecordFTP(conn.ID, today, me.CyclingFTP); err != nil {
			return nil, fmt.Errorf("recording ftp: %w", err)
		}
	}
	return me, nil
}

// walkWorkouts iterates the remote workout list, ensures each class
// template exists locally, and upserts the workout instances. It returns
// the sample fetch jobs for the second phase.
func (o *Orchestrator) walkWorkouts(ctx context.Context, conn *store.Connection, me *peloton.User, cutoff time.Time, result *Result) ([]sampleJob, error) {
	it := o.client.Workouts(conn.RemoteUserID, o.cfg.Sync.PageSize)

	var jobs []sampleJob
	consecutiveOld := 0

	for {
		record, err := it.Next(ctx)
		if errors.Is(err, peloton.ErrDone) {
			return jobs, nil
		}
		if err != nil {
			if isAuthLoss(err) {
				return jobs, err
			}
			// A broken page ends the walk but keeps what we have.
			o.log.Warn("workout list interrupted", "error", err)
			result.Halted = true
			return jobs, nil
		}

		w, err := peloton.DecodeWorkout(record)
		if err != nil {
			o.log.Warn("undecodable workout record", "error", err)
			result.Failed++
			continue
		}

		if !cutoff.IsZero() {
			if time.Unix(canonicalTimestamp(w), 0).Before(cutoff) {
				result.Skipped++
				consecutiveOld++
				if consecutiveOld >= consecutiveOldLimit {
					result.Halted = true
					return jobs, nil
				}
				continue
			}
			consecutiveOld = 0
		}

		job, err := o.processWorkout(ctx, conn, me, w, result)
		if err != nil {
			if isAuthLoss(err) {
				return jobs, err
			}
			o.log.Warn("workout sync failed", "workout", w.ID, "error", err)
			result.Failed++
			continue
		}
		if job != nil {
			jobs = append(jobs, *job)
		}
	}
}

// processWorkout stores one workout record: template first, instance
// second. Returns a sample job when the series still needs fetching.
func (o *Orchestrator) processWorkout(ctx context.Context, conn *store.Connection, me *peloton.User, w *peloton.Workout, result *Result) (*sampleJob, error) {
	if w.Ride == nil || w.Ride.ID == "" {
		// The list payload sometimes omits the ride join. Pull the full
		// detail before concluding the workout is a free one.
		var detail *peloton.Workout
		err := withRetry(ctx, o.cfg.Sync.MaxRetries, func(ctx context.Context) error {
			var err error
			detail, err = o.client.WorkoutDetail(ctx, w.ID)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fetching workout detail %s: %w", w.ID, err)
		}
		if detail.Ride == nil || detail.Ride.ID == "" {
			// Free workouts have no class to anchor to.
			result.Skipped++
			return nil, nil
		}
		w = detail
	}

	ok, err := o.ensureTemplate(ctx, w.Ride.ID, result)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another worker holds the class lock; this record will be
		// picked up on the next run.
		result.Skipped++
		return nil, nil
	}

	start := w.StartTime
	if start == 0 {
		start = w.CreatedAt
	}
	recorded := w.CreatedAt
	if recorded == 0 {
		recorded = w.StartTime
	}

	instance := &store.WorkoutInstance{
		RemoteID:      w.ID,
		ConnectionID:  conn.ID,
		ClassRemoteID: w.Ride.ID,
		RecordedAt:    time.Unix(recorded, 0).UTC(),
		StartedAt:     time.Unix(start, 0).UTC(),
		CompletedDate: completedDate(start),
		Discipline:    w.FitnessDiscipline,
		FTP:           o.workoutFTP(conn, me, w),
	}

	created, err := o.store.UpsertWorkoutInstance(instance)
	if err != nil {
		return nil, fmt.Errorf("storing workout %s: %w", w.ID, err)
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}

	if instance.FTP > 0 {
		if err := o.store.RecordFTP(conn.ID, instance.CompletedDate, instance.FTP); err != nil {
			return nil, fmt.Errorf("recording workout ftp: %w", err)
		}
	}

	existing, err := o.store.GetWorkoutInstance(w.ID)
	if err == nil && existing.SamplesSynced {
		return nil, nil
	}
	return &sampleJob{workoutID: w.ID}, nil
}

// ensureTemplate makes sure the class template exists locally, fetching
// class details when it does not. The fetch runs under a per-class TTL
// lock; a lock miss means another worker is fetching the same class and
// this record should be skipped, not blocked on.
func (o *Orchestrator) ensureTemplate(ctx context.Context, rideID string, result *Result) (bool, error) {
	exists, err := o.store.HasClassTemplate(rideID)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	owner, acquired, err := o.store.AcquireLock("class:"+rideID, classLockTTL, o.now())
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}
	defer func() {
		if rerr := o.store.ReleaseLock("class:"+rideID, owner); rerr != nil {
			o.log.Warn("releasing class lock", "class", rideID, "error", rerr)
		}
	}()

	// Someone else may have finished the fetch before we took the lock.
	exists, err = o.store.HasClassTemplate(rideID)
	if err != nil || exists {
		return exists, err
	}

	var details *peloton.RideDetails
	err = withRetry(ctx, o.cfg.Sync.MaxRetries, func(ctx context.Context) error {
		var err error
		details, err = o.client.RideDetails(ctx, rideID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("fetching class %s: %w", rideID, err)
	}

	if details.Ride.InstructorID != "" {
		if err := o.storeInstructor(ctx, details.Ride.InstructorID); err != nil {
			// An instructor miss should not block the class itself.
			o.log.Warn("instructor fetch failed", "instructor", details.Ride.InstructorID, "error", err)
		}
	}

	playlist, err := playlistFromDetails(details)
	if err != nil {
		return false, fmt.Errorf("encoding playlist for class %s: %w", rideID, err)
	}
	if playlist != nil {
		if err := o.store.UpsertPlaylist(playlist); err != nil {
			return false, fmt.Errorf("storing playlist for class %s: %w", rideID, err)
		}
	}

	tmpl, err := templateFromDetails(details)
	if err != nil {
		return false, fmt.Errorf("encoding class %s: %w", rideID, err)
	}
	if err := o.store.UpsertClassTemplate(tmpl); err != nil {
		return false, fmt.Errorf("storing class %s: %w", rideID, err)
	}
	result.Classes++
	o.log.Info("class template stored", "class", rideID, "title", tmpl.Title, "class_type", tmpl.ClassType)
	return true, nil
}

func (o *Orchestrator) storeInstructor(ctx context.Context, instructorID string) error {
	var instructor *peloton.Instructor
	err := withRetry(ctx, o.cfg.Sync.MaxRetries, func(ctx context.Context) error {
		var err error
		instructor, err = o.client.Instructor(ctx, instructorID)
		return err
	})
	if err != nil {
		return err
	}
	return o.store.UpsertInstructor(&store.Instructor{
		RemoteID: instructor.ID,
		Name:     instructor.Name,
		ImageURL: instructor.ImageURL,
		Bio:      instructor.Bio,
	})
}

// workoutFTP picks the FTP recorded with the workout, then the account's
// current FTP, then the configured fallback.
func (o *Orchestrator) workoutFTP(conn *store.Connection, me *peloton.User, w *peloton.Workout) int {
	if w.FTPInfo != nil && w.FTPInfo.FTP > 0 {
		return w.FTPInfo.FTP
	}
	if me.CyclingFTP > 0 {
		return me.CyclingFTP
	}
	return o.cfg.Athlete.FallbackFTP
}

// fetchSamples downloads and stores performance graphs with bounded
// parallel fetchers. Sample failures never fail the run: the workout
// stays unmarked and is retried next sync.
func (o *Orchestrator) fetchSamples(ctx context.Context, result *Result, jobs []sampleJob) {
	if len(jobs) == 0 {
		return
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sampleFetchers)

	for _, job := range jobs {
		g.Go(func() error {
			err := o.fetchSampleSet(ctx, job.workoutID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.log.Warn("sample fetch failed", "workout", job.workoutID, "error", err)
				result.Failed++
				return nil
			}
			result.SampleSets++
			return nil
		})
	}
	g.Wait()
}

func (o *Orchestrator) fetchSampleSet(ctx context.Context, workoutID string) error {
	var graph *peloton.PerformanceGraph
	err := withRetry(ctx, o.cfg.Sync.MaxRetries, func(ctx context.Context) error {
		var err error
		graph, err = o.client.PerformanceGraph(ctx, workoutID, o.cfg.Sync.SampleIntervalS)
		return err
	})
	if err != nil {
		return err
	}

	samples := samplesFromGraph(workoutID, graph)
	if err := o.store.ReplaceSamples(workoutID, samples); err != nil {
		return fmt.Errorf("storing samples: %w", err)
	}
	return o.store.MarkSamplesSynced(workoutID, o.now())
}

// handleAuthLoss deactivates the connection when auth is unrecoverable,
// so schedulers stop hammering a dead credential.
func (o *Orchestrator) handleAuthLoss(conn *store.Connection, result *Result, err error) error {
	if err == nil {
		return nil
	}
	if isAuthLoss(err) {
		result.Halted = true
		if derr := o.store.DeactivateConnection(conn.ID); derr != nil {
			o.log.Error("deactivating connection", "connection", conn.ID, "error", derr)
		}
		o.log.Error("authentication lost, connection deactivated", "connection", conn.ID, "error", err)
	}
	return err
}

// isAuthLoss reports whether err means the connection can no longer
// authenticate at all, as opposed to one failed request.
func isAuthLoss(err error) bool {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case auth.KindNoRefreshToken, auth.KindBadCredentials, auth.KindRefreshRejected:
			return true
		}
		return false
	}
	return false
}
