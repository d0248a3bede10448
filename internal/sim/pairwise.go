package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/force"
	"github.com/san-kum/tenpush/internal/thing"
)

// coincidentEps is the squared distance below which two points are treated
// as sitting on top of each other.
const coincidentEps = 1e-20

// driftFloor is where the drift-correction factor is clamped.
const driftFloor = -0.95

// Interaction evaluates the force one point feels from another under the
// average of their inverse tensors.
type Interaction struct {
	Model  force.Model
	Scale  float64
	Cutoff float64
	// DriftCorrect rescales forces where the metric changes quickly.
	DriftCorrect bool
	// DriftClamp silently clamps the correction factor at -0.95; without
	// it a factor below -0.95 is an error.
	DriftClamp bool
}

// Force returns the force b exerts on a. coincident is true when the points
// are too close to define a direction, in which case the force is zero.
func (in *Interaction) Force(a, b *thing.Point) (f core.Vec3, coincident bool, err error) {
	d := b.Pos.Sub(a.Pos)
	d2 := d.Norm2()
	if d2 < coincidentEps {
		return core.Vec3{}, true, nil
	}
	dLen := math.Sqrt(d2)
	if dLen >= in.Cutoff {
		return core.Vec3{}, false, nil
	}

	inv := core.Mean(a.Inv, b.Inv)
	u := inv.Apply(d)
	uLen := u.Norm()
	nu := u.Scale(1 / uLen)
	dot := nu.Dot(d.Scale(1 / dLen))

	have := dot * dLen
	rest := dot * 2 * in.Scale * dLen / uLen
	f = nu.Scale(in.Model.Magnitude(have, rest, in.Scale))

	if in.DriftCorrect {
		v := a.Inv.Apply(d)
		mm := 2 * dot * in.Scale * (1/uLen - 1/v.Norm())
		if in.DriftClamp {
			mm = math.Max(mm, driftFloor)
		} else if mm < driftFloor {
			return core.Vec3{}, false, fmt.Errorf("%w: factor %g below %g", core.ErrNumericDomain, mm, driftFloor)
		}
		if !(mm > -1 && mm < 1) {
			return core.Vec3{}, false, fmt.Errorf("%w: factor %g", core.ErrNumericDomain, mm)
		}
		f = f.Scale(math.Sqrt((1 - mm) / (1 + mm)))
	}
	return f, false, nil
}
