package layout

import (
	"math"
	"sync"
)

const (
	defaultAlphaMin       = 0.001
	defaultVelocityRetain = 0.6 // velocities keep 60% of their magnitude per tick
	dragAlphaTarget       = 0.3

	initialRadius = 10.0
)

// initialAngle spreads fresh particles on a phyllotaxis spiral so no two
// start at the same point, which would make repulsion blow up.
var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Simulation advances a particle system under a set of forces. It is a plain
// stepper: it owns no goroutine, callers drive it by calling Step, typically
// from a single ticker loop. All methods are safe for concurrent use so drag
// updates can arrive from request handlers while the loop ticks.
type Simulation struct {
	mu sync.Mutex

	particles []*Particle
	byID      map[string]*Particle
	forces    []Force

	alpha       float64
	alphaMin    float64
	alphaDecay  float64
	alphaTarget float64
	velRetain   float64

	stopped bool
}

// NewSimulation builds a simulation over the given particle IDs, placing them
// on a spiral around (cx, cy). Forces are initialized against the particle
// slice and applied in order on every tick.
func NewSimulation(ids []string, cx, cy float64, forces ...Force) *Simulation {
	particles := make([]*Particle, len(ids))
	byID := make(map[string]*Particle, len(ids))
	for i, id := range ids {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		p := &Particle{ID: id, X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
		particles[i] = p
		byID[id] = p
	}
	for _, f := range forces {
		f.Init(particles)
	}
	return &Simulation{
		particles:  particles,
		byID:       byID,
		forces:     forces,
		alpha:      1,
		alphaMin:   defaultAlphaMin,
		alphaDecay: 1 - math.Pow(defaultAlphaMin, 1.0/300),
		velRetain:  defaultVelocityRetain,
	}
}

// Step advances the simulation one tick and reports whether it is still
// active. Once alpha decays below alphaMin with no alphaTarget holding it up,
// Step becomes a no-op until something reheats the system.
func (s *Simulation) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || !s.activeLocked() {
		return false
	}

	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay
	for _, f := range s.forces {
		f.Apply(s.alpha)
	}
	for _, p := range s.particles {
		if p.FX != nil {
			p.X, p.VX = *p.FX, 0
		} else {
			p.VX *= s.velRetain
			p.X += p.VX
		}
		if p.FY != nil {
			p.Y, p.VY = *p.FY, 0
		} else {
			p.VY *= s.velRetain
			p.Y += p.VY
		}
	}
	return s.activeLocked()
}

func (s *Simulation) activeLocked() bool {
	return s.alpha >= s.alphaMin || s.alphaTarget > 0
}

// Stop permanently halts the simulation. Further Steps do nothing; positions
// stay frozen at their last values. Used when a rebuilt graph replaces this
// simulation so two steppers never fight over shared state.
func (s *Simulation) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Reheat raises alpha back up so the layout reorganizes after a perturbation.
func (s *Simulation) Reheat(alpha float64) {
	s.mu.Lock()
	if alpha > s.alpha {
		s.alpha = alpha
	}
	s.mu.Unlock()
}

// DragStart pins the node at the pointer position and raises alphaTarget so
// neighbors keep rearranging around the held node for the whole drag.
func (s *Simulation) DragStart(id string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return false
	}
	s.alphaTarget = dragAlphaTarget
	if s.alpha < dragAlphaTarget {
		s.alpha = dragAlphaTarget
	}
	p.Pin(x, y)
	return true
}

// DragMove updates the pinned position mid-drag. Starting a move on a node
// that was never drag-started still pins it; the upstream handler treats the
// two the same way.
func (s *Simulation) DragMove(id string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return false
	}
	p.Pin(x, y)
	return true
}

// DragEnd releases the node back to the physics and lets the simulation cool
// down naturally.
func (s *Simulation) DragEnd(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return false
	}
	s.alphaTarget = 0
	p.Unpin()
	return true
}

// Position returns the current coordinates of one particle.
func (s *Simulation) Position(id string) (x, y float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, found := s.byID[id]
	if !found {
		return 0, 0, false
	}
	return p.X, p.Y, true
}

// Point is a position snapshot entry.
type Point struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Held bool    `json:"held,omitempty"`
}

// Snapshot copies every particle position in construction order.
func (s *Simulation) Snapshot() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Point, len(s.particles))
	for i, p := range s.particles {
		out[i] = Point{ID: p.ID, X: p.X, Y: p.Y, Held: p.FX != nil}
	}
	return out
}

// Alpha reports the current heat, mostly for tests and status endpoints.
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}
