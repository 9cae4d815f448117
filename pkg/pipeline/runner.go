package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kahojyun/pulsegen/pkg/flatten"
	"github.com/kahojyun/pulsegen/pkg/layout"
	"github.com/kahojyun/pulsegen/pkg/observability"
	"github.com/kahojyun/pulsegen/pkg/phase"
)

// Runner executes compilations.
//
// The Runner is stateless except for the logger - it doesn't store
// compilation results. Multiple goroutines can safely use the same Runner.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Compile runs the validate → layout → flatten → track pipeline.
func (r *Runner) Compile(ctx context.Context, req Request, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	id := uuid.NewString()
	hooks := observability.Pipeline()
	logger := r.Logger.With("compilation", id[:8])
	stageLogger := logger
	if opts.Logger != nil {
		stageLogger = opts.Logger.With("compilation", id[:8])
	}
	result := &Result{ID: id, Channels: req.Channels, Shapes: req.Shapes}
	start := time.Now()

	hooks.OnCompileStart(ctx, id)
	err := r.compile(ctx, id, req, opts, result, stageLogger, hooks)
	hooks.OnCompileComplete(ctx, id, result.Stats.NodeCount, len(result.Instructions), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	logger.Info("compiled schedule",
		"nodes", result.Stats.NodeCount,
		"instructions", len(result.Instructions),
		"duration", fmt.Sprintf("%gs", result.Duration),
		"elapsed", result.Stats.Total())
	return result, nil
}

func (r *Runner) compile(ctx context.Context, id string, req Request, opts Options, result *Result,
	logger *log.Logger, hooks observability.PipelineHooks) error {
	// Stage 1: Validate
	hooks.OnStageStart(ctx, id, observability.StageValidate)
	stageStart := time.Now()
	err := req.Validate()
	result.Stats.ValidateTime = time.Since(stageStart)
	hooks.OnStageComplete(ctx, id, observability.StageValidate, result.Stats.ValidateTime, err)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Stage 2: Layout
	hooks.OnStageStart(ctx, id, observability.StageLayout)
	stageStart = time.Now()
	l, err := layout.Run(req.Schedule, layout.Options{RootDuration: opts.RootDuration})
	result.Stats.LayoutTime = time.Since(stageStart)
	hooks.OnStageComplete(ctx, id, observability.StageLayout, result.Stats.LayoutTime, err)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Duration = l.Slot(l.Root())
	result.Stats.NodeCount = l.Len()
	logger.Debug("laid out schedule", "nodes", l.Len(), "duration", result.Duration, "elapsed", result.Stats.LayoutTime)
	if err := ctx.Err(); err != nil {
		return err
	}

	// Stage 3: Flatten
	hooks.OnStageStart(ctx, id, observability.StageFlatten)
	stageStart = time.Now()
	items := flatten.Flatten(l)
	result.Stats.FlattenTime = time.Since(stageStart)
	result.Stats.ItemCount = len(items)
	hooks.OnStageComplete(ctx, id, observability.StageFlatten, result.Stats.FlattenTime, nil)
	logger.Debug("flattened schedule", "items", len(items), "elapsed", result.Stats.FlattenTime)
	if err := ctx.Err(); err != nil {
		return err
	}

	// Stage 4: Track
	hooks.OnStageStart(ctx, id, observability.StageTrack)
	stageStart = time.Now()
	tracker := phase.NewTracker(req.Channels, opts.Policy())
	for _, it := range items {
		if err = tracker.Apply(it); err != nil {
			break
		}
	}
	result.Stats.TrackTime = time.Since(stageStart)
	hooks.OnStageComplete(ctx, id, observability.StageTrack, result.Stats.TrackTime, err)
	if err != nil {
		return fmt.Errorf("track: %w", err)
	}

	result.Instructions = tracker.Plays()
	result.Stats.PlayCount = len(result.Instructions)
	result.Stats.DroppedPlays = tracker.Dropped()
	for _, p := range result.Instructions {
		if p.Clipped {
			result.Stats.ClippedPlays++
		}
	}
	if result.Stats.ClippedPlays > 0 {
		logger.Warn("plays extend past the channel record", "count", result.Stats.ClippedPlays)
	}
	logger.Debug("tracked phases", "plays", result.Stats.PlayCount, "dropped", result.Stats.DroppedPlays,
		"elapsed", result.Stats.TrackTime)
	return nil
}

// CompileAll compiles requests concurrently, at most opts.Workers at a time.
// Results are returned in request order. The first failure cancels the
// remaining compilations and is returned with the index of its request.
func (r *Runner) CompileAll(ctx context.Context, reqs []Request, opts Options) ([]*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	results := make([]*Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := r.Compile(gctx, req, opts)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
