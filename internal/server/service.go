package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dcatool/internal/input"
	"dcatool/internal/logger"
	"dcatool/internal/params"
	"dcatool/internal/replay"
	"dcatool/internal/store"
)

const maxBatchConcurrency = 4

// Service executes replays and persists them.
type Service struct {
	store    *store.Store
	registry *params.Registry
}

func NewService(st *store.Store, registry *params.Registry) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("preset registry is required")
	}
	return &Service{store: st, registry: registry}, nil
}

// RunOutcome pairs the persisted run with the full replay output.
type RunOutcome struct {
	Run    store.RunModel `json:"run"`
	Result replay.Result  `json:"result"`
}

// Run parses one backtest-result document, replays it and persists the
// outcome. Strategy parameters come from the named preset when given,
// otherwise from the document itself.
func (s *Service) Run(ctx context.Context, raw, preset string) (RunOutcome, error) {
	payload, err := input.Parse(raw)
	if err != nil {
		return RunOutcome{}, err
	}
	strategy, err := s.resolveStrategy(raw, preset)
	if err != nil {
		return RunOutcome{}, err
	}

	res := replay.Replay(replay.Input{
		Bars:               payload.Bars,
		Transactions:       payload.Transactions,
		Params:             strategy,
		SnapshotsAvailable: payload.SnapshotsAvailable,
	})

	run := store.RunModel{
		ID:           uuid.NewString(),
		Symbol:       payload.Symbol,
		Preset:       strings.TrimSpace(preset),
		Mode:         string(strategy.Mode),
		LotSizeUSD:   strategy.LotSizeUSD,
		MaxPositions: strategy.MaxPositions,
	}
	if err := s.store.SaveRun(ctx, run, res, payload.Transactions); err != nil {
		return RunOutcome{}, fmt.Errorf("persisting run failed: %w", err)
	}
	saved, err := s.store.GetRun(ctx, run.ID)
	if err != nil {
		return RunOutcome{}, err
	}
	logger.Infof("replay run %s: %s, %d days, %d diagnostics",
		run.ID, payload.Symbol, len(res.Days), len(res.Diagnostics))
	return RunOutcome{Run: saved, Result: res}, nil
}

// RunBatch replays several documents concurrently. Order of outcomes
// matches the order of inputs.
func (s *Service) RunBatch(ctx context.Context, raws []string, preset string) ([]RunOutcome, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("batch is empty")
	}
	outcomes := make([]RunOutcome, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchConcurrency)
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			out, err := s.Run(gctx, raw, preset)
			if err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (s *Service) resolveStrategy(raw, preset string) (params.Strategy, error) {
	if name := strings.TrimSpace(preset); name != "" {
		strategy, ok := s.registry.Preset(name)
		if !ok {
			return params.Strategy{}, fmt.Errorf("unknown preset %q", name)
		}
		return strategy, nil
	}
	strategy, found, err := input.ParseStrategyParams(raw)
	if err != nil {
		return params.Strategy{}, err
	}
	if !found {
		return params.Strategy{}, fmt.Errorf("no preset given and payload carries no strategyParameters")
	}
	return strategy, nil
}
