package physics

import (
	"fmt"
	"sort"

	"github.com/orneryd/skuld/pkg/graph"
)

// SelectTop1 picks the single highest-priority node among all non-Ignorable
// nodes, ordered by state severity, then pressure, then entropy (all
// descending), with node id as a final deterministic tiebreak. Returns nil
// when every node is Ignorable.
//
// Only ever one alert per cycle, never a list: the whole point of the engine
// is to force prioritization.
func (e *Engine) SelectTop1() *graph.Node {
	var candidates []*graph.Node
	for _, n := range e.nodes {
		if n.State != graph.StateIgnorable {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.State != b.State {
			return a.State > b.State
		}
		if a.Pressure != b.Pressure {
			return a.Pressure > b.Pressure
		}
		if a.Physics.Entropy != b.Physics.Entropy {
			return a.Physics.Entropy > b.Physics.Entropy
		}
		return a.ID < b.ID
	})

	return candidates[0]
}

// GenerateOutput formats the Top-1 node's message template with its current
// raw value. The second return is false when no alert is warranted.
//
// Example:
//
//	if msg, ok := engine.GenerateOutput(); ok {
//		fmt.Println(msg) // "Cash on hand is down to 4200"
//	}
func (e *Engine) GenerateOutput() (string, bool) {
	top := e.SelectTop1()
	if top == nil {
		return "", false
	}

	if top.Message != "" && top.Value != nil {
		return fmt.Sprintf(top.Message, *top.Value), true
	}
	if top.Message != "" {
		return top.Message, true
	}
	return fmt.Sprintf("%s is %s (pressure %.2f)", top.Name, top.State, top.Pressure), true
}
