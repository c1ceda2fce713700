package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogYAML = `
nodes:
  - id: n01
    name: cash_on_hand
    direction: higher_better
    thresholds: {ignorable: 10000, pressuring: 5000, irreversible: 1000}
    physics: {conductivity: 0.6, mass: 2.0, entropy: 0.01}
    message: "Cash on hand is down to %.0f"
    circuit: financial
  - id: n09
    name: cash_runway_weeks
    direction: higher_better
    thresholds: {ignorable: 12, pressuring: 6, irreversible: 2}
    physics: {conductivity: 0.8, mass: 1.0, entropy: 0.02}
    circuit: financial
edges:
  - {id: e04, source: n09, target: n01, type: buffer, weight: 0.6}
`

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)

	require.Len(t, catalog.Nodes, 2)
	require.Len(t, catalog.Edges, 1)

	n := catalog.Nodes[0]
	assert.Equal(t, NodeID("n01"), n.ID)
	assert.Equal(t, HigherBetter, n.Direction)
	assert.Equal(t, 5000.0, n.Thresholds.Pressuring)
	assert.Equal(t, 2.0, n.Physics.Mass)
	assert.Equal(t, "financial", n.Circuit)

	e := catalog.Edges[0]
	assert.Equal(t, Buffer, e.Type)
	assert.Equal(t, NodeID("n09"), e.Source)
}

func TestCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no nodes",
			yaml: `edges: []`,
		},
		{
			name: "duplicate node id",
			yaml: `
nodes:
  - {id: n01, direction: contextual, physics: {mass: 1}}
  - {id: n01, direction: contextual, physics: {mass: 1}}`,
		},
		{
			name: "unknown direction",
			yaml: `
nodes:
  - {id: n01, direction: sideways_better, physics: {mass: 1}}`,
		},
		{
			name: "non-positive mass",
			yaml: `
nodes:
  - {id: n01, direction: contextual, physics: {mass: 0}}`,
		},
		{
			name: "negative entropy",
			yaml: `
nodes:
  - {id: n01, direction: contextual, physics: {mass: 1, entropy: -0.1}}`,
		},
		{
			name: "unknown edge type",
			yaml: `
nodes:
  - {id: n01, direction: contextual, physics: {mass: 1}}
edges:
  - {id: e01, source: n01, target: n01, type: teleport, weight: 0.5}`,
		},
		{
			name: "edge weight out of range",
			yaml: `
nodes:
  - {id: n01, direction: contextual, physics: {mass: 1}}
edges:
  - {id: e01, source: n01, target: n01, type: buffer, weight: 1.5}`,
		},
		{
			name: "edge references missing node",
			yaml: `
nodes:
  - {id: n01, direction: contextual, physics: {mass: 1}}
edges:
  - {id: e01, source: n01, target: n99, type: buffer, weight: 0.5}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestInstantiateIsolation(t *testing.T) {
	catalog, err := ParseCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)

	nodesA, edgesA := catalog.Instantiate()
	nodesB, _ := catalog.Instantiate()

	// Mutating one device's copy must not leak into another's.
	v := 4200.0
	nodesA["n01"].Value = &v
	nodesA["n01"].Pressure = 0.9
	edgesA["e04"].Weight = 0.1

	assert.Nil(t, nodesB["n01"].Value)
	assert.Equal(t, 0.0, nodesB["n01"].Pressure)
	assert.Equal(t, 0.6, catalog.Edges[0].Weight)
	assert.Equal(t, StateIgnorable, nodesB["n01"].State)
}
