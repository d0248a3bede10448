package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/field"
	"github.com/san-kum/tenpush/internal/grid"
	"github.com/san-kum/tenpush/internal/integrators"
	"github.com/san-kum/tenpush/internal/probe"
	"github.com/san-kum/tenpush/internal/thing"
)

// schedulerState is shared by the calling goroutine and every worker.
type schedulerState struct {
	mu   sync.Mutex
	next int

	// stage and iter are written by the calling goroutine before the
	// opening barrier of a stage and only read inside it.
	stage Stage
	iter  int

	finished atomic.Bool
	failed   atomic.Bool

	errMu sync.Mutex
	err   error
}

func (st *schedulerState) fail(err error) {
	st.errMu.Lock()
	if st.err == nil {
		st.err = err
	}
	st.errMu.Unlock()
	st.failed.Store(true)
}

func (st *schedulerState) firstErr() error {
	st.errMu.Lock()
	defer st.errMu.Unlock()
	return st.err
}

type Scheduler struct {
	params Params
	log    *slog.Logger
	field  field.Field
	prober *probe.Prober
	inter  Interaction

	grid  *grid.Grid
	reg   *thing.Registry
	tasks []*Task

	maxEval float64
	st      schedulerState
	begin   *Barrier
	end     *Barrier
	wg      sync.WaitGroup

	phase     Phase
	iter      int
	meanSpeed float64
	err       error

	metrics   []Metric
	observers []Observer
}

// New validates p and prepares a scheduler over f. stepper drives fiber
// tracing and may be nil when tractlets are off.
func New(p Params, f field.Field, stepper integrators.Stepper) (*Scheduler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: no field", core.ErrConfig)
	}
	if f.Dim() != p.Dim {
		return nil, fmt.Errorf("%w: field is %d-D but the run is %d-D", core.ErrConfig, f.Dim(), p.Dim)
	}

	var fib *integrators.Fiber
	if p.Tractlets {
		if stepper == nil {
			stepper = integrators.NewRK4()
		}
		fib = integrators.NewFiber(f, stepper, p.TractStep, p.Threshold-p.Softness)
	}

	return &Scheduler{
		params: p,
		log:    p.logger(),
		field:  f,
		prober: probe.New(f, fib),
		inter:  Interaction{
			Model:        p.Force,
			Scale:        p.Scale,
			DriftCorrect: p.DriftCorrect,
			DriftClamp:   p.DriftClamp,
		},
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func (s *Scheduler) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Scheduler) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Scheduler) Params() Params            { return s.params }
func (s *Scheduler) Phase() Phase              { return s.phase }
func (s *Scheduler) Iter() int                 { return s.iter }
func (s *Scheduler) MeanSpeed() float64        { return s.meanSpeed }
func (s *Scheduler) Cutoff() float64           { return s.inter.Cutoff }
func (s *Scheduler) MaxEigenvalue() float64    { return s.maxEval }
func (s *Scheduler) Grid() *grid.Grid          { return s.grid }
func (s *Scheduler) Registry() *thing.Registry { return s.reg }

// Thing returns the live thing for id, or nil. The thing must not be
// modified while an iteration runs.
func (s *Scheduler) Thing(id thing.ID) *thing.Thing {
	if s.reg == nil {
		return nil
	}
	return s.reg.Get(id)
}

// Start scans the field for its largest eigenvalue, sizes the grid from the
// resulting cutoff radius, seeds Params.NumThings things and launches the
// workers.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.phase != PhaseCreated {
		return fmt.Errorf("start in phase %s: %w", s.phase, core.ErrConfig)
	}
	p := &s.params

	maxEval, err := field.MaxEigenvalue(ctx, s.field, p.EigenRes, p.Threads)
	if err != nil {
		return fmt.Errorf("scanning field: %w", err)
	}
	s.maxEval = maxEval
	s.inter.Cutoff = p.Force.MaxDistance(p.Scale, maxEval)

	if p.SingleBin {
		s.grid, err = grid.NewSingle(p.Dim, p.Margin)
	} else {
		s.grid, err = grid.New(p.Dim, p.Margin, s.inter.Cutoff, p.MaxBinsPerAxis)
	}
	if err != nil {
		return err
	}
	s.reg = thing.NewRegistry(s.grid.NumBins())
	s.tasks = newTasks(p.Threads, s.prober)

	if err := s.seed(); err != nil {
		return err
	}

	s.begin = NewBarrier(p.Threads)
	s.end = NewBarrier(p.Threads)
	for _, t := range s.tasks[1:] {
		s.wg.Add(1)
		go s.worker(t)
	}
	s.phase = PhaseIdle

	s.log.Info("scheduler started",
		"threads", p.Threads,
		"bins", s.grid.NumBins(),
		"cutoff", s.inter.Cutoff,
		"max_eigenvalue", maxEval,
		"things", s.reg.Len())
	return nil
}

// seed places NumThings single things at uniformly random positions.
func (s *Scheduler) seed() error {
	p := &s.params
	rng := rand.New(rand.NewSource(p.Seed))
	for i := 0; i < p.NumThings; i++ {
		var pos core.Vec3
		for d := 0; d < p.Dim; d++ {
			pos[d] = 2*rng.Float64() - 1
		}
		if _, err := s.addThing(pos); err != nil {
			return err
		}
	}
	return nil
}

// AddThing places a single thing at rest at pos. It may only be called
// between Start and Finish while no iteration is running.
func (s *Scheduler) AddThing(pos core.Vec3) (thing.ID, error) {
	if s.phase != PhaseIdle {
		return thing.ID{}, fmt.Errorf("add thing in phase %s: %w", s.phase, core.ErrConfig)
	}
	return s.addThing(pos)
}

func (s *Scheduler) addThing(pos core.Vec3) (thing.ID, error) {
	pos = pos.Flatten(s.params.Dim)
	bin, ok := s.grid.Locate(pos)
	if !ok {
		return thing.ID{}, fmt.Errorf("seeding at %v: %w", pos, core.ErrBinLocate)
	}
	pt := thing.Point{Pos: pos, Charge: 1}
	if err := s.prober.Probe(&pt); err != nil {
		return thing.ID{}, err
	}
	return s.reg.Add(thing.NewSingle(pt), bin), nil
}

func (s *Scheduler) worker(t *Task) {
	defer s.wg.Done()
	for {
		s.begin.Wait()
		if s.st.finished.Load() {
			return
		}
		s.work(t)
		s.end.Wait()
	}
}

// work claims bins until none are left. After a failure bins are still
// claimed but skipped so every goroutine reaches the closing barrier.
func (s *Scheduler) work(t *Task) {
	stage, iter := s.st.stage, s.st.iter
	for {
		b, ok := s.claim(stage)
		if !ok {
			return
		}
		if s.st.failed.Load() {
			continue
		}
		var err error
		if stage == StageForce {
			err = s.forceBin(t, b, iter)
		} else {
			err = s.updateBin(t, b, iter)
		}
		if err != nil {
			s.st.fail(err)
		}
	}
}

func (s *Scheduler) claim(stage Stage) (int, bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for s.st.next < len(s.reg.Bins) {
		b := s.st.next
		s.st.next++
		if !s.idle(b, stage) {
			return b, true
		}
	}
	return -1, false
}

func (s *Scheduler) runStage(stage Stage) {
	s.st.stage = stage
	s.st.iter = s.iter
	s.st.next = 0
	s.begin.Wait()
	s.work(s.tasks[0])
	s.end.Wait()
}

// Iterate runs one Force stage, one Update stage and a rebinning pass.
// The first worker error ends the run: it is returned here and every later
// call returns ErrRunFailed. A failed iteration leaves positions,
// velocities and bins as the last completed iteration left them.
func (s *Scheduler) Iterate() (IterStats, error) {
	switch {
	case s.phase == PhaseFinished:
		return IterStats{}, core.ErrFinished
	case s.err != nil:
		return IterStats{}, fmt.Errorf("%w: %w", core.ErrRunFailed, s.err)
	case s.phase != PhaseIdle:
		return IterStats{}, fmt.Errorf("iterate in phase %s: %w", s.phase, core.ErrConfig)
	}

	start := time.Now()
	s.phase = PhaseRunning
	for _, t := range s.tasks {
		t.reset()
	}

	s.runStage(StageForce)
	s.runStage(StageUpdate)
	s.phase = PhaseIdle

	if err := s.st.firstErr(); err != nil {
		s.err = err
		s.log.Error("iteration failed", "iter", s.iter, "err", err)
		return IterStats{Iter: s.iter}, err
	}
	s.commit()

	st := IterStats{Iter: s.iter}
	speed := 0.0
	for _, t := range s.tasks {
		speed += t.speedSum
		st.Things += t.things
		st.Tractlets += t.tractlets
		st.Vertices += t.vertices
		st.Coincident += t.coincident
	}
	if st.Things > 0 {
		st.MeanSpeed = speed / float64(st.Things)
	}
	if st.Coincident > 0 {
		s.log.Debug("coincident points ignored", "iter", s.iter, "count", st.Coincident)
	}

	st.Rebin = Rebin(s.grid, s.reg)
	s.iter++
	s.meanSpeed = st.MeanSpeed
	st.Elapsed = time.Since(start)

	s.log.Debug("iteration done",
		"iter", st.Iter,
		"mean_speed", st.MeanSpeed,
		"things", st.Things,
		"tractlets", st.Tractlets,
		"destroyed", st.Rebin.Destroyed)

	for _, m := range s.metrics {
		m.Observe(st)
	}
	for _, o := range s.observers {
		o.OnIteration(st)
	}
	return st, nil
}

// Converged reports whether the minimum iteration count is reached and the
// last mean speed fell below the threshold.
func (s *Scheduler) Converged() bool {
	p := &s.params
	return s.iter > 0 && s.iter >= p.MinIter && s.meanSpeed < p.MinMeanSpeed
}

// Run iterates until convergence, MaxIter (when non-zero), an error or ctx
// cancellation. The partial result is returned in every case.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		History: make([]IterStats, 0),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}
	defer func() {
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		st, err := s.Iterate()
		if err != nil {
			return result, err
		}
		result.History = append(result.History, st)

		if s.Converged() {
			result.Converged = true
			s.log.Info("converged", "iter", s.iter, "mean_speed", s.meanSpeed)
			return result, nil
		}
		if limit := s.params.MaxIter; limit > 0 && s.iter >= limit {
			s.log.Info("iteration limit reached", "iter", s.iter, "mean_speed", s.meanSpeed)
			return result, nil
		}
	}
}

// Finish stops the workers and releases the bins and tasks. It is safe to
// call more than once.
func (s *Scheduler) Finish() {
	if s.phase == PhaseFinished {
		return
	}
	if s.phase != PhaseCreated {
		s.st.finished.Store(true)
		s.begin.Wait()
		s.wg.Wait()
	}
	s.tasks = nil
	s.reg = nil
	s.phase = PhaseFinished
	s.log.Info("scheduler finished", "iter", s.iter)
}

// Err returns the error that ended the run, if any.
func (s *Scheduler) Err() error { return s.err }

