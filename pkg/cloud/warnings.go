package cloud

import "github.com/orneryd/skuld/pkg/protocol"

// defaultEarlyWarnings is the curated rule set shipped in every downstream
// packet. Triggers compare raw node values (not pressures) in the restricted
// boolean language of pkg/rules; each rule names the edge whose weight the
// device multiplies when the trigger holds.
//
// Node ids reference the standard indicator catalog: n01 cash on hand,
// n02 monthly revenue, n03 burn rate, n05 open client work, n09 cash runway
// in weeks, n12 hours slept, n15 weekly work hours, n18 days since last
// sale. Rules were chosen from fleet post-mortems, not fitted.
var defaultEarlyWarnings = []protocol.EarlyWarningPattern{
	{
		Trigger:     "n09 < 5.0 AND n18 > 30",
		BoostEdgeID: "e01",
		BoostFactor: 1.5,
		Description: "short runway with a stalled pipeline makes cash drain dominate",
	},
	{
		Trigger:     "n02 < 1000 AND n03 > 4000",
		BoostEdgeID: "e02",
		BoostFactor: 1.4,
		Description: "burn far above revenue accelerates the revenue to cash dependency",
	},
	{
		Trigger:     "n12 < 6 AND n15 > 60",
		BoostEdgeID: "e07",
		BoostFactor: 1.6,
		Description: "sleep debt plus overwork amplifies stress propagation",
	},
	{
		Trigger:     "n01 < 2000 OR n09 < 3",
		BoostEdgeID: "e03",
		BoostFactor: 1.3,
		Description: "near-empty reserves make debt pressure bite immediately",
	},
	{
		Trigger:     "n05 > 8 AND n18 > 14",
		BoostEdgeID: "e05",
		BoostFactor: 1.25,
		Description: "heavy delivery load with no new sales starves the pipeline buffer",
	},
}

// ExtractEarlyWarnings returns the active early-warning rule set. The set is
// fixed per release; it is returned as a fresh slice so callers can append
// without aliasing the package state.
func (e *Engine) ExtractEarlyWarnings() []protocol.EarlyWarningPattern {
	out := make([]protocol.EarlyWarningPattern, len(defaultEarlyWarnings))
	copy(out, defaultEarlyWarnings)
	return out
}
