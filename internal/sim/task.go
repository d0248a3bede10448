package sim

import (
	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/probe"
	"github.com/san-kum/tenpush/internal/thing"
)

// update is the outcome of integrating one thing, held until the Update
// stage has finished everywhere without error.
type update struct {
	t   *thing.Thing
	bin int
	vel core.Vec3
	frc core.Vec3

	// seed is the re-probed seed point. verts is set when the thing
	// becomes or stays a tractlet.
	seed    thing.Point
	verts   []thing.Point
	seedIdx int
	length  float64
}

// Task is the private state of one worker. Only the goroutine running the
// task touches it during a stage; the scheduler reads it between stages.
type Task struct {
	ID     int
	prober *probe.Prober

	speedSum   float64
	things     int
	tractlets  int
	vertices   int
	coincident int

	pending []update
}

func newTasks(n int, master *probe.Prober) []*Task {
	tasks := make([]*Task, n)
	for i := range tasks {
		tasks[i] = &Task{ID: i, prober: master.Clone()}
	}
	return tasks
}

func (t *Task) reset() {
	t.speedSum = 0
	t.things = 0
	t.tractlets = 0
	t.vertices = 0
	t.coincident = 0
	clear(t.pending)
	t.pending = t.pending[:0]
}
