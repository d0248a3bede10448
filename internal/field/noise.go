package field

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/san-kum/tenpush/internal/core"
)

// Noise orients its principal direction by one simplex noise channel and
// scales its anisotropy by another.
type Noise struct {
	dim   int
	seed  int64
	freq  float64
	aniso float64

	dir   opensimplex.Noise
	tilt  opensimplex.Noise
	shape opensimplex.Noise
}

func NewNoise(dim int, seed int64, freq, aniso float64) (*Noise, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("%w: field dimension must be 2 or 3, got %d", core.ErrConfig, dim)
	}
	if freq <= 0 {
		return nil, fmt.Errorf("%w: noise frequency must be positive, got %g", core.ErrConfig, freq)
	}
	if aniso < 0 || aniso >= 1 {
		return nil, fmt.Errorf("%w: noise anisotropy must be in [0,1), got %g", core.ErrConfig, aniso)
	}
	return &Noise{
		dim:   dim,
		seed:  seed,
		freq:  freq,
		aniso: aniso,
		dir:   opensimplex.New(seed),
		tilt:  opensimplex.New(seed + 1),
		shape: opensimplex.NewNormalized(seed + 2),
	}, nil
}

func (n *Noise) Dim() int { return n.dim }

func (n *Noise) Clone() Field {
	c, _ := NewNoise(n.dim, n.seed, n.freq, n.aniso)
	return c
}

func (n *Noise) Sample(pos core.Vec3) (core.Tensor, core.Tensor, core.Vec3) {
	x, y, z := pos[0]*n.freq, pos[1]*n.freq, pos[2]*n.freq

	var theta, phi, s float64
	if n.dim == 2 {
		theta = math.Pi * n.dir.Eval2(x, y)
		s = n.shape.Eval2(x, y)
	} else {
		theta = math.Pi * n.dir.Eval3(x, y, z)
		phi = 0.5 * math.Pi * n.tilt.Eval3(x, y, z)
		s = n.shape.Eval3(x, y, z)
	}

	e1 := core.Vec3{math.Cos(theta) * math.Cos(phi), math.Sin(theta) * math.Cos(phi), math.Sin(phi)}
	l2 := 1 - n.aniso*s
	ten, inv := axial(confidence(pos, n.dim), 1, l2, e1, n.dim)
	return ten, inv, Containment(pos, n.dim)
}
