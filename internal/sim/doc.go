// Package sim runs the particle system: a population of things pushed
// through a tensor field until they settle into a locally uniform layout.
//
//   - [Scheduler]: owns the grid, the registry and the worker pool
//   - [Task]: per-worker prober handle and accumulators
//   - [Interaction]: pairwise force under the locally averaged metric
//   - [Rebin]: serial pass that moves or destroys things after each iteration
//   - [Snapshot]: flat arrays describing the live population
//
// # Iteration
//
// Every iteration runs a Force stage and an Update stage. Each stage starts
// and ends on a barrier shared by all workers and the calling goroutine;
// inside a stage, workers claim bins one at a time from a mutex-guarded
// counter. A bin is processed by exactly one goroutine per stage and all
// writes touch only the things and points owned by the claimed bin, so the
// stages need no other locking. Rebinning runs on the calling goroutine
// after both stages.
//
// # Example
//
//	f, _ := field.NewCircle(2, 0.8)
//	s, _ := sim.New(sim.DefaultParams(), f, integrators.NewRK4())
//	_ = s.Start(ctx)
//	defer s.Finish()
//	result, err := s.Run(ctx)
//
// # Thread Safety
//
// Scheduler methods must be called from one goroutine. Workers exist only
// between Start and Finish.
package sim
