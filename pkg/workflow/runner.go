package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brightwell/adforge/pkg/checkpoint"
)

// Stage produces one or more artifacts from the topic and the accumulated
// history. Stages never mutate the history; the runner appends their
// records in order. Most stages return a single record; deep research also
// returns its plan and findings.
type Stage interface {
	Name() string
	Run(ctx context.Context, topic string, h History) ([]Record, error)
}

// Runner executes stages strictly in order. A stage does not start before
// its predecessor's record has been appended and checkpointed.
type Runner struct {
	Stages  []Stage
	Store   checkpoint.Store
	OnEvent EventFunc
	Logger  *slog.Logger

	now func() time.Time
}

// Run drives every stage for one topic and returns the full history. The
// returned run ID identifies this run in the checkpoint store. Any stage
// error aborts the run wrapped in a StageFailure.
func (r *Runner) Run(ctx context.Context, topic string) (History, string, error) {
	runID := uuid.NewString()
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	em := &emitter{fn: r.OnEvent, now: r.now}
	if em.now == nil {
		em.now = time.Now
	}

	var h History
	for _, stage := range r.Stages {
		if err := ctx.Err(); err != nil {
			return h, runID, failStage(stage.Name(), err)
		}
		em.stage(EventStageStart, stage.Name(), nil)
		logger.Info("stage start", "run_id", runID, "stage", stage.Name())

		recs, err := stage.Run(ctx, topic, h)
		if err != nil {
			err = failStage(stage.Name(), err)
			em.stage(EventStageError, stage.Name(), err)
			logger.Error("stage failed", "run_id", runID, "stage", stage.Name(), "error", err)
			return h, runID, err
		}
		for _, rec := range recs {
			if rec.Stage == "" {
				rec.Stage = stage.Name()
			}
			if rec.At.IsZero() {
				rec.At = em.now()
			}
			h = h.Append(rec)

			if err := r.save(ctx, runID, topic, rec); err != nil {
				logger.Warn("checkpoint save failed", "run_id", runID, "stage", stage.Name(), "error", err)
			} else if r.Store != nil {
				em.emit(Event{Type: EventCheckpoint, Stage: stage.Name()})
			}
		}
		em.stage(EventStageDone, stage.Name(), nil)
		logger.Info("stage done", "run_id", runID, "stage", stage.Name())
	}

	em.emit(Event{Type: EventPipelineDone})
	return h, runID, nil
}

// save records the stage output in the checkpoint store, keyed by artifact
// kind so a multi-artifact stage does not overwrite its own snapshots. A
// failed save is reported but never fails the run.
func (r *Runner) save(ctx context.Context, runID, topic string, rec Record) error {
	if r.Store == nil {
		return nil
	}
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", rec.Kind, err)
	}
	return r.Store.Save(ctx, &checkpoint.Record{
		RunID:   runID,
		Stage:   string(rec.Kind),
		Topic:   topic,
		Payload: payload,
		SavedAt: rec.At,
	})
}
