package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Ko-stant/maze-division-engine/internal/config"
	"github.com/Ko-stant/maze-division-engine/internal/geometry"
	"github.com/Ko-stant/maze-division-engine/internal/maze"
	"github.com/Ko-stant/maze-division-engine/internal/protocol"
)

// runParams is a validated generation request
type runParams struct {
	Width     int
	Height    int
	Budget    int
	Seed      *uint64
	Policy    maze.CompletionPolicy
	StepDelay time.Duration
}

// MazeService validates generation requests and runs them, publishing every
// patch to the requesting client and to spectators
type MazeService struct {
	limits      config.MazeConfig
	validator   *validator.Validate
	broadcaster Broadcaster
	runs        *RunManager
	metrics     *PerformanceMetrics
	sequence    SequenceGenerator
	logger      Logger
}

// NewMazeService creates a new maze service
func NewMazeService(limits config.MazeConfig, broadcaster Broadcaster, runs *RunManager, metrics *PerformanceMetrics, logger Logger) *MazeService {
	return &MazeService{
		limits:      limits,
		validator:   validator.New(),
		broadcaster: broadcaster,
		runs:        runs,
		metrics:     metrics,
		sequence:    &atomicSequence{},
		logger:      logger,
	}
}

// Resolve validates req against the struct rules and the configured limits
func (s *MazeService) Resolve(req protocol.RequestGenerate) (runParams, *MazeError) {
	if err := s.validator.Struct(req); err != nil {
		return runParams{}, validationError(err)
	}
	if req.Width < maze.MinSize || req.Height < maze.MinSize ||
		req.Width > s.limits.MaxWidth || req.Height > s.limits.MaxHeight {
		return runParams{}, &MazeError{
			Code: CodeInvalidSize,
			Message: fmt.Sprintf("size %dx%d outside %dx%d..%dx%d",
				req.Width, req.Height, maze.MinSize, maze.MinSize, s.limits.MaxWidth, s.limits.MaxHeight),
		}
	}

	budget := s.limits.DefaultBudget
	if req.Budget != nil {
		budget = *req.Budget
	}
	if budget > s.limits.MaxBudget {
		return runParams{}, &MazeError{Code: CodeInvalidBudget, Message: fmt.Sprintf("budget %d above maximum %d", budget, s.limits.MaxBudget)}
	}

	delay := time.Duration(req.StepDelayMS) * time.Millisecond
	if delay > s.limits.MaxStepDelay {
		return runParams{}, &MazeError{Code: CodeInvalidStepDelay, Message: fmt.Sprintf("step delay %v above maximum %v", delay, s.limits.MaxStepDelay)}
	}

	policy, err := maze.ParseCompletionPolicy(req.Policy)
	if err != nil {
		return runParams{}, &MazeError{Code: CodeValidation, Message: err.Error()}
	}

	return runParams{
		Width:     req.Width,
		Height:    req.Height,
		Budget:    budget,
		Seed:      req.Seed,
		Policy:    policy,
		StepDelay: delay,
	}, nil
}

// Run generates one maze. emit, when set, receives every patch in order
// before it is broadcast. A cancelled ctx yields a cancelled snapshot, not an
// error.
func (s *MazeService) Run(ctx context.Context, p runParams, emit func(protocol.PatchEnvelope)) (protocol.Snapshot, error) {
	runID, runCtx := s.runs.Start(ctx)
	defer s.runs.Finish(runID)
	start := time.Now()

	publish := func(patchType string, payload any) {
		env := protocol.PatchEnvelope{
			Sequence: s.sequence.Next(),
			RunID:    runID,
			Type:     patchType,
			Payload:  payload,
		}
		if emit != nil {
			emit(env)
		}
		if s.broadcaster != nil {
			// spectators outlive the requesting client
			if err := s.broadcaster.BroadcastJSON(context.WithoutCancel(ctx), env); err != nil {
				s.logger.Printf("maze %s: broadcast %s failed: %v", runID, patchType, err)
			}
		}
	}

	publish(protocol.PatchRunStarted, protocol.RunStarted{
		Width:  p.Width,
		Height: p.Height,
		Budget: p.Budget,
		Policy: p.Policy.String(),
	})

	walls := 0
	opts := []maze.Option{
		maze.WithRunID(runID),
		maze.WithCompletionPolicy(p.Policy),
		maze.WithStepDelay(p.StepDelay),
		maze.WithLogger(s.logger),
		maze.WithObserver(func(w maze.Wall) {
			walls++
			publish(protocol.PatchWallDrawn, wallPatch(w))
		}),
	}
	if p.Seed != nil {
		opts = append(opts, maze.WithSeed(*p.Seed))
	}

	grid, err := maze.Generate(runCtx, p.Width, p.Height, p.Budget, func(r maze.Result) {
		if p.Policy == maze.CompleteOnFirstTerminal {
			s.logger.Printf("maze %s: first terminal chamber reached after %d splits", runID, r.Splits)
		}
	}, opts...)
	if err != nil {
		s.metrics.TrackFailure()
		s.logger.Printf("maze %s: generation failed: %+v", runID, err)
		merr := mazeErrorFrom(err)
		publish(protocol.PatchError, protocol.ErrorNotice{Code: merr.Code, Message: merr.Message})
		return protocol.Snapshot{}, merr
	}

	// under first_terminal the latched Result predates any later cancellation
	cancelled := runCtx.Err() != nil

	cells := grid.Cells()
	snapshot := protocol.Snapshot{
		RunID:           runID,
		Width:           grid.Width(),
		Height:          grid.Height(),
		Cells:           protocol.PackCells(cells),
		RegionsCount:    geometry.BuildRegionMap(grid.Width(), grid.Height(), cells).RegionsCount,
		Splits:          walls,
		BudgetLeft:      p.Budget - walls,
		Cancelled:       cancelled,
		ProtocolVersion: protocol.ProtocolVersion,
	}
	publish(protocol.PatchGenerationComplete, protocol.GenerationComplete{Snapshot: snapshot})

	elapsed := time.Since(start)
	s.metrics.TrackRun(elapsed, walls, cancelled)
	s.logger.Printf("maze %s: %dx%d done in %v, %d splits, cancelled=%v", runID, p.Width, p.Height, elapsed, walls, cancelled)
	return snapshot, nil
}

func wallPatch(w maze.Wall) protocol.WallDrawn {
	p := w.PassagePoint()
	return protocol.WallDrawn{
		Orientation: string(w.Orientation),
		At:          w.At,
		From:        w.From,
		To:          w.To,
		Passage:     protocol.CellAddress{X: p.X, Y: p.Y},
	}
}

func validationError(err error) *MazeError {
	var messages []string
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			messages = append(messages, fmt.Sprintf("%s: %s", fe.Field(), validationMessage(fe)))
		}
	}
	if len(messages) == 0 {
		messages = append(messages, err.Error())
	}
	return &MazeError{Code: CodeValidation, Message: strings.Join(messages, "; ")}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
