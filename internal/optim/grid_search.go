// Package optim searches parameter grids for the settings that minimize a
// run metric.
package optim

import (
	"context"
	"math"

	"github.com/san-kum/tenpush/internal/sim"
)

// Trial runs one simulation with the given parameter values and returns
// its result.
type Trial func(ctx context.Context, params map[string]float64) (*sim.Result, error)

type Outcome struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs every grid point and returns the parameters with the lowest
// value of metricName, that value, and every outcome in grid order. Failed
// trials are kept in the outcomes but never win. Only cancellation stops
// the search early.
func (g *GridSearch) Search(ctx context.Context, trial Trial, metricName string) (map[string]float64, float64, []Outcome, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	outcomes := make([]Outcome, 0, g.Size())

	err := g.searchRecursive(ctx, 0, make(map[string]float64), trial, metricName, &best, &bestParams, &outcomes)
	return bestParams, best, outcomes, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	trial Trial,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	outcomes *[]Outcome,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		o := Outcome{Params: current, Value: math.NaN()}
		result, err := trial(ctx, current)
		switch {
		case err != nil:
			o.Err = err
		case result != nil:
			o.Value = result.Metrics[metricName]
			if o.Value < *best {
				*best = o.Value
				*bestParams = make(map[string]float64)
				for k, v := range current {
					(*bestParams)[k] = v
				}
			}
		}
		*outcomes = append(*outcomes, o)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, trial, metricName, best, bestParams, outcomes); err != nil {
			return err
		}
	}
	return nil
}
