package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	values := map[string]float64{
		"n01": 1500,
		"n09": 4.2,
		"n12": 5.5,
		"n18": 45,
	}

	tests := []struct {
		name    string
		trigger string
		want    bool
	}{
		{"simple less than", "n09 < 5.0", true},
		{"simple greater than", "n18 > 30", true},
		{"and both true", "n09 < 5.0 AND n18 > 30", true},
		{"and one false", "n09 < 5.0 AND n18 > 100", false},
		{"or rescues", "n09 > 100 OR n18 > 30", true},
		{"lowercase keywords", "n09 < 5.0 and n18 > 30", true},
		{"less or equal boundary", "n18 <= 45", true},
		{"greater or equal boundary", "n18 >= 45", true},
		{"equality single equals", "n18 = 45", true},
		{"equality double equals", "n18 == 45", true},
		{"not equal", "n18 != 45", false},
		{"parentheses group or", "(n01 < 2000 OR n09 < 3) AND n18 > 30", true},
		{"missing identifier is false", "n99 > 0", false},
		{"missing identifier in and", "n09 < 5.0 AND n99 > 0", false},
		{"negative literal", "n09 > -1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.trigger, values))
		})
	}
}

func TestPrecedenceAndBindsTighterThanOr(t *testing.T) {
	// a OR b AND c parses as a OR (b AND c).
	values := map[string]float64{"a": 1, "b": 1, "c": 0}
	assert.True(t, Evaluate("a > 0 OR b > 0 AND c > 0", values))
	assert.False(t, Evaluate("(a > 0 OR b > 0) AND c > 0", values))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		trigger string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"missing operand", "n09 <"},
		{"missing operator", "n09 5.0"},
		{"bare bang", "n09 ! 5"},
		{"unclosed paren", "(n09 < 5"},
		{"trailing tokens", "n09 < 5 n18"},
		{"number on left", "5 < n09"},
		{"unknown character", "n09 < 5 ; drop"},
		{"keyword without comparisons", "AND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.trigger)
			require.ErrorIs(t, err, ErrParse)

			// Evaluate must treat the same input as "not triggered".
			assert.False(t, Evaluate(tt.trigger, map[string]float64{"n09": 1}))
		})
	}
}

func TestIdentifiersStayInert(t *testing.T) {
	// An identifier is only ever a map key; hostile-looking ids simply fail
	// to parse or fail to match, they never execute.
	_, err := Parse("system('rm') > 0")
	assert.Error(t, err)

	assert.False(t, Evaluate("__proto__ > 0", map[string]float64{"n01": 1}))
}

func TestExprString(t *testing.T) {
	expr, err := Parse("n09 < 5.0 AND (n18 > 30 OR n01 <= 2000)")
	require.NoError(t, err)
	assert.Equal(t, "(n09 < 5 AND (n18 > 30 OR n01 <= 2000))", expr.String())
}
