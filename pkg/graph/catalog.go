package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the static definition of an indicator graph: which nodes exist,
// how their raw values map to pressure, and how they are wired together.
//
// A Catalog is immutable after load. Each device gets its own live copy of
// every node and edge via Instantiate, so per-device simulation state never
// leaks between engines.
//
// Example catalog file:
//
//	nodes:
//	  - id: n01
//	    name: cash_on_hand
//	    direction: higher_better
//	    thresholds: {ignorable: 20000, pressuring: 8000, irreversible: 1000}
//	    physics: {conductivity: 0.5, mass: 1.0, entropy: 0.01}
//	    message: "Cash on hand is down to %.0f"
//	    circuit: liquidity
//	edges:
//	  - id: e01
//	    source: n01
//	    target: n09
//	    type: dependency
//	    weight: 0.6
type Catalog struct {
	Nodes []Node `yaml:"nodes"`
	Edges []Edge `yaml:"edges"`
}

// LoadCatalog reads and validates a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses and validates YAML catalog bytes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks catalog integrity: unique IDs, known directions and edge
// types, weights in [0,1], positive mass, and edges that reference existing
// nodes.
func (c *Catalog) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidCatalog)
	}

	ids := make(map[NodeID]struct{}, len(c.Nodes))
	for i := range c.Nodes {
		n := &c.Nodes[i]
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has empty id", ErrInvalidCatalog, i)
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidCatalog, n.ID)
		}
		ids[n.ID] = struct{}{}

		switch n.Direction {
		case HigherBetter, LowerBetter, TargetRange, Contextual:
		default:
			return fmt.Errorf("%w: node %q has unknown direction %q", ErrInvalidCatalog, n.ID, n.Direction)
		}
		if n.Physics.Mass <= 0 {
			return fmt.Errorf("%w: node %q has non-positive mass", ErrInvalidCatalog, n.ID)
		}
		if n.Physics.Entropy < 0 {
			return fmt.Errorf("%w: node %q has negative entropy", ErrInvalidCatalog, n.ID)
		}
	}

	edgeIDs := make(map[EdgeID]struct{}, len(c.Edges))
	for i := range c.Edges {
		e := &c.Edges[i]
		if e.ID == "" {
			return fmt.Errorf("%w: edge %d has empty id", ErrInvalidCatalog, i)
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return fmt.Errorf("%w: duplicate edge id %q", ErrInvalidCatalog, e.ID)
		}
		edgeIDs[e.ID] = struct{}{}

		switch e.Type {
		case Dependency, Buffer, Substitution, Amplify:
		default:
			return fmt.Errorf("%w: edge %q has unknown type %q", ErrInvalidCatalog, e.ID, e.Type)
		}
		if e.Weight < 0 || e.Weight > 1 {
			return fmt.Errorf("%w: edge %q weight %.3f outside [0,1]", ErrInvalidCatalog, e.ID, e.Weight)
		}
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("%w: edge %q source %q not in catalog", ErrInvalidCatalog, e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("%w: edge %q target %q not in catalog", ErrInvalidCatalog, e.ID, e.Target)
		}
	}

	return nil
}

// Instantiate returns fresh live copies of the catalog's nodes and edges,
// keyed by ID, for one device's exclusive use.
func (c *Catalog) Instantiate() (map[NodeID]*Node, map[EdgeID]*Edge) {
	nodes := make(map[NodeID]*Node, len(c.Nodes))
	for i := range c.Nodes {
		n := c.Nodes[i] // copy
		n.Value = nil
		n.Pressure = 0
		n.State = StateIgnorable
		n.DaysSinceAction = 0
		n.PhaseTransitioned = false
		nodes[n.ID] = &n
	}
	edges := make(map[EdgeID]*Edge, len(c.Edges))
	for i := range c.Edges {
		e := c.Edges[i] // copy
		edges[e.ID] = &e
	}
	return nodes, edges
}
