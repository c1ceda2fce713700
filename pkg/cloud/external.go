package cloud

import "github.com/orneryd/skuld/pkg/graph"

// externalFactorRule maps one macro-economic factor to the node whose
// entropy it raises. A factor contributes only above its threshold, scaled
// by how far it exceeds it, and each contribution is capped so no single
// macro reading can dominate a node's own decay constant.
type externalFactorRule struct {
	factor    string
	node      graph.NodeID
	threshold float64
	scale     float64
}

const maxExternalDelta = 0.05

// Financial stress nodes: n01 cash on hand, n02 monthly revenue, n03 burn
// rate. Rising rates erode reserves, volatility destabilizes revenue, and
// inflation inflates burn.
var externalFactorRules = []externalFactorRule{
	{factor: "interest_rate", node: "n01", threshold: 3.0, scale: 0.002},
	{factor: "market_volatility", node: "n02", threshold: 20.0, scale: 0.0005},
	{factor: "inflation", node: "n03", threshold: 4.0, scale: 0.0025},
}

// CalculateExternalEntropy derives the sparse node entropy-delta map from
// the engine's current external factors. Factors at or below their threshold
// contribute nothing; the result omits zero entries entirely.
//
// Example:
//
//	engine.UpdateExternalFactors(map[string]float64{"interest_rate": 5.5})
//	deltas := engine.CalculateExternalEntropy()
//	// deltas["n01"] == (5.5 - 3.0) * 0.002 == 0.005
func (e *Engine) CalculateExternalEntropy() map[graph.NodeID]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.externalEntropyLocked()
}

func (e *Engine) externalEntropyLocked() map[graph.NodeID]float64 {
	deltas := make(map[graph.NodeID]float64)
	for _, rule := range externalFactorRules {
		value, ok := e.factors[rule.factor]
		if !ok || value <= rule.threshold {
			continue
		}
		delta := (value - rule.threshold) * rule.scale
		if delta > maxExternalDelta {
			delta = maxExternalDelta
		}
		deltas[rule.node] += delta
	}
	return deltas
}
