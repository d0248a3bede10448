package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/tenpush/internal/sim"
)

func bowl(ctx context.Context, p map[string]float64) (*sim.Result, error) {
	v := (p["scale"]-0.1)*(p["scale"]-0.1) + (p["drag"]-1)*(p["drag"]-1)
	return &sim.Result{Metrics: map[string]float64{"mean_speed": v}}, nil
}

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch([]string{"scale", "drag"}, [][]float64{{0.05, 0.1, 0.2}, {0.5, 1, 2}})
	if g.Size() != 9 {
		t.Fatalf("expected 9 grid points, got %d", g.Size())
	}

	params, best, outcomes, err := g.Search(context.Background(), bowl, "mean_speed")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if params["scale"] != 0.1 || params["drag"] != 1 {
		t.Errorf("expected scale 0.1 drag 1, got %v", params)
	}
	if best != 0 {
		t.Errorf("expected best 0, got %f", best)
	}
	if len(outcomes) != 9 {
		t.Errorf("expected 9 outcomes, got %d", len(outcomes))
	}
}

func TestGridSearchSkipsFailures(t *testing.T) {
	failing := func(ctx context.Context, p map[string]float64) (*sim.Result, error) {
		if p["scale"] == 0.1 {
			return nil, errors.New("diverged")
		}
		return bowl(ctx, p)
	}
	g := NewGridSearch([]string{"scale"}, [][]float64{{0.1, 0.3}})

	params, _, outcomes, err := g.Search(context.Background(), failing, "mean_speed")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if params["scale"] != 0.3 {
		t.Errorf("expected the surviving point to win, got %v", params)
	}
	if outcomes[0].Err == nil || !math.IsNaN(outcomes[0].Value) {
		t.Errorf("expected first outcome to record the failure, got %+v", outcomes[0])
	}
}

func TestGridSearchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGridSearch([]string{"scale"}, [][]float64{{0.1, 0.2}})

	_, _, outcomes, err := g.Search(ctx, bowl, "mean_speed")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(outcomes))
	}
}
