package view

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/khulnasoft-bot/aegis/internal/graph"
	"github.com/khulnasoft-bot/aegis/internal/intel"
	"github.com/khulnasoft-bot/aegis/internal/layout"
)

// Canvas geometry and physics tuning for the dashboard view.
const (
	Width  = 800.0
	Height = 600.0

	linkDistance   = 100.0
	chargeStrength = -120.0
	axisStrength   = 0.1

	tickInterval = 33 * time.Millisecond
)

// Node radii by role: indicators stay small, hubs grow so shared infrastructure
// stands out at a glance.
const (
	radiusIndicator = 6.0
	radiusMalware   = 14.0
	radiusFormat    = 10.0
	radiusSource    = 10.0
)

// Session couples one threat graph to one running force simulation. SetRecords
// atomically swaps both: the old simulation is fully stopped before the new
// graph and simulation become visible, so a snapshot never mixes topologies.
type Session struct {
	mu    sync.RWMutex
	graph graph.Graph
	sim   *layout.Simulation
}

// NewSession starts an empty session. The tick loop runs until ctx is
// cancelled; it drives whichever simulation is current.
func NewSession(ctx context.Context) *Session {
	s := &Session{}
	go s.run(ctx)
	return s
}

// SetRecords rebuilds the graph and restarts layout from scratch.
func (s *Session) SetRecords(records []intel.IndicatorRecord) {
	g := graph.Build(records)

	ids := make([]string, len(g.Nodes))
	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
		index[n.ID] = i
	}
	links := make([]layout.Link, len(g.Edges))
	for i, e := range g.Edges {
		links[i] = layout.Link{Source: index[e.Source], Target: index[e.Target]}
	}

	sim := layout.NewSimulation(ids, Width/2, Height/2,
		layout.NewLinkForce(links, linkDistance),
		layout.NewManyBodyForce(chargeStrength),
		layout.NewCenterForce(Width/2, Height/2),
		layout.NewXForce(Width/2, axisStrength),
		layout.NewYForce(Height/2, axisStrength),
	)

	s.mu.Lock()
	if s.sim != nil {
		s.sim.Stop()
	}
	s.graph = g
	s.sim = sim
	s.mu.Unlock()

	slog.Info("view session rebuilt", "nodes", len(g.Nodes), "edges", len(g.Edges))
}

func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			sim := s.sim
			s.mu.RUnlock()
			if sim != nil {
				sim.Step()
			}
		}
	}
}

// Graph returns the current topology.
func (s *Session) Graph() graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// PlacedNode is one node with its current layout position and render hints.
type PlacedNode struct {
	graph.Node
	X      float64              `json:"x"`
	Y      float64              `json:"y"`
	Radius float64              `json:"radius"`
	Tier   graph.ConfidenceTier `json:"tier,omitempty"`
	Held   bool                 `json:"held,omitempty"`
}

// Placement is a point-in-time view of the laid-out graph.
type Placement struct {
	Nodes []PlacedNode `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Placement snapshots the graph with current positions. Node order matches
// the underlying graph's insertion order.
func (s *Session) Placement() Placement {
	s.mu.RLock()
	g := s.graph
	sim := s.sim
	s.mu.RUnlock()

	out := Placement{
		Nodes: make([]PlacedNode, len(g.Nodes)),
		Edges: g.Edges,
	}
	var points []layout.Point
	if sim != nil {
		points = sim.Snapshot()
	}
	for i, n := range g.Nodes {
		pn := PlacedNode{Node: n, Radius: radiusFor(n.Category)}
		if n.Category == graph.CategoryIndicator {
			pn.Tier = n.Tier()
		}
		if i < len(points) {
			pn.X, pn.Y = points[i].X, points[i].Y
			pn.Held = points[i].Held
		}
		out.Nodes[i] = pn
	}
	return out
}

// DragPhase is one step of the pointer interaction protocol.
type DragPhase string

const (
	DragPhaseStart DragPhase = "start"
	DragPhaseMove  DragPhase = "move"
	DragPhaseEnd   DragPhase = "end"
)

// Drag forwards a pointer event to the live simulation. Returns false when
// the node is not part of the current graph or the phase is unknown.
func (s *Session) Drag(nodeID string, phase DragPhase, x, y float64) bool {
	s.mu.RLock()
	sim := s.sim
	s.mu.RUnlock()
	if sim == nil {
		return false
	}
	switch phase {
	case DragPhaseStart:
		return sim.DragStart(nodeID, x, y)
	case DragPhaseMove:
		return sim.DragMove(nodeID, x, y)
	case DragPhaseEnd:
		return sim.DragEnd(nodeID)
	default:
		return false
	}
}

func radiusFor(c graph.Category) float64 {
	switch c {
	case graph.CategoryMalware:
		return radiusMalware
	case graph.CategoryFormat:
		return radiusFormat
	case graph.CategorySource:
		return radiusSource
	default:
		return radiusIndicator
	}
}
