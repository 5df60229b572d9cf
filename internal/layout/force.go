package layout

import "math"

// Force nudges particle velocities (or positions) once per tick. alpha is the
// simulation's current heat in [0,1]; forces scale their effect by it so the
// layout settles instead of oscillating forever.
type Force interface {
	Init(particles []*Particle)
	Apply(alpha float64)
}

// Particle is the mutable per-node layout state. FX/FY, when non-nil, pin the
// particle: integration snaps it to the fixed point and zeroes its velocity.
type Particle struct {
	ID     string
	X, Y   float64
	VX, VY float64
	FX, FY *float64
}

// Pin fixes the particle at (x, y) until Unpin.
func (p *Particle) Pin(x, y float64) {
	p.FX, p.FY = &x, &y
	p.X, p.Y = x, y
}

// Unpin releases a pinned particle back to physics control.
func (p *Particle) Unpin() { p.FX, p.FY = nil, nil }

// Link declares an attraction between two particles by index.
type Link struct {
	Source, Target int
}

// LinkForce pulls linked particles toward a target distance. Strength and
// bias follow the degree heuristic from d3-force: a hub with many links moves
// less per link than a leaf, which keeps clusters from collapsing inward.
type LinkForce struct {
	Links    []Link
	Distance float64

	particles []*Particle
	count     []int     // degree per particle
	bias      []float64 // per link, share of correction applied to target
	strength  []float64 // per link
}

func NewLinkForce(links []Link, distance float64) *LinkForce {
	return &LinkForce{Links: links, Distance: distance}
}

func (f *LinkForce) Init(particles []*Particle) {
	f.particles = particles
	f.count = make([]int, len(particles))
	for _, l := range f.Links {
		f.count[l.Source]++
		f.count[l.Target]++
	}
	f.bias = make([]float64, len(f.Links))
	f.strength = make([]float64, len(f.Links))
	for i, l := range f.Links {
		f.bias[i] = float64(f.count[l.Source]) / float64(f.count[l.Source]+f.count[l.Target])
		f.strength[i] = 1.0 / float64(min(f.count[l.Source], f.count[l.Target]))
	}
}

func (f *LinkForce) Apply(alpha float64) {
	for i, l := range f.Links {
		s, t := f.particles[l.Source], f.particles[l.Target]
		dx := t.X + t.VX - s.X - s.VX
		dy := t.Y + t.VY - s.Y - s.VY
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			dx, dist = 1e-6, 1e-6
		}
		k := (dist - f.Distance) / dist * alpha * f.strength[i]
		dx *= k
		dy *= k
		t.VX -= dx * f.bias[i]
		t.VY -= dy * f.bias[i]
		s.VX += dx * (1 - f.bias[i])
		s.VY += dy * (1 - f.bias[i])
	}
}

// ManyBodyForce applies pairwise charge repulsion (negative strength).
// Direct O(n²) evaluation; dashboard graphs are a few hundred nodes at most,
// well under where a Barnes-Hut tree would pay off.
type ManyBodyForce struct {
	Strength float64

	particles []*Particle
}

func NewManyBodyForce(strength float64) *ManyBodyForce {
	return &ManyBodyForce{Strength: strength}
}

func (f *ManyBodyForce) Init(particles []*Particle) { f.particles = particles }

func (f *ManyBodyForce) Apply(alpha float64) {
	for i, a := range f.particles {
		for _, b := range f.particles[i+1:] {
			dx := b.X - a.X
			dy := b.Y - a.Y
			d2 := dx*dx + dy*dy
			if d2 == 0 {
				dx, d2 = 1e-6, 1e-12
			}
			w := f.Strength * alpha / d2
			a.VX -= dx * w
			a.VY -= dy * w
			b.VX += dx * w
			b.VY += dy * w
		}
	}
}

// CenterForce translates the whole system so its centroid sits at (X, Y).
// Positional, not velocity-based: it cannot inject energy.
type CenterForce struct {
	X, Y float64

	particles []*Particle
}

func NewCenterForce(x, y float64) *CenterForce { return &CenterForce{X: x, Y: y} }

func (f *CenterForce) Init(particles []*Particle) { f.particles = particles }

func (f *CenterForce) Apply(alpha float64) {
	n := len(f.particles)
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, p := range f.particles {
		sx += p.X
		sy += p.Y
	}
	sx = sx/float64(n) - f.X
	sy = sy/float64(n) - f.Y
	for _, p := range f.particles {
		if p.FX == nil {
			p.X -= sx
		}
		if p.FY == nil {
			p.Y -= sy
		}
	}
}

// AxisForce weakly attracts every particle toward a fixed coordinate on one
// axis, preventing slow drift off-canvas between refreshes.
type AxisForce struct {
	Target   float64
	Strength float64
	Vertical bool // false: acts on X, true: acts on Y

	particles []*Particle
}

func NewXForce(x, strength float64) *AxisForce {
	return &AxisForce{Target: x, Strength: strength}
}

func NewYForce(y, strength float64) *AxisForce {
	return &AxisForce{Target: y, Strength: strength, Vertical: true}
}

func (f *AxisForce) Init(particles []*Particle) { f.particles = particles }

func (f *AxisForce) Apply(alpha float64) {
	for _, p := range f.particles {
		if f.Vertical {
			p.VY += (f.Target - p.Y) * f.Strength * alpha
		} else {
			p.VX += (f.Target - p.X) * f.Strength * alpha
		}
	}
}
