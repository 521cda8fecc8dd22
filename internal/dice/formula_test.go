package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vttforge/areatrigger/internal/dice"
	"github.com/vttforge/areatrigger/internal/errors"
)

func TestEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		formula    string
		vars       map[string]int
		setupRolls []int
		wantTotal  int
		wantRolls  []int
		wantErr    bool
	}{
		{
			name:       "plain dice",
			formula:    "2d6",
			setupRolls: []int{4, 5},
			wantTotal:  9,
			wantRolls:  []int{4, 5},
		},
		{
			name:       "dice plus literal",
			formula:    "2d6+3",
			setupRolls: []int{4, 5},
			wantTotal:  12,
			wantRolls:  []int{4, 5},
		},
		{
			name:       "dice with variable",
			formula:    "1d8 + spell_mod",
			vars:       map[string]int{"spell_mod": 4},
			setupRolls: []int{6},
			wantTotal:  10,
			wantRolls:  []int{6},
		},
		{
			name:      "variable with host-style prefix",
			formula:   "8 + @prof + @spell_mod",
			vars:      map[string]int{"prof": 2, "spell_mod": 3},
			wantTotal: 13,
		},
		{
			name:       "subtraction",
			formula:    "1d4-1",
			setupRolls: []int{3},
			wantTotal:  2,
			wantRolls:  []int{3},
		},
		{
			name:       "bare d20",
			formula:    "d20",
			setupRolls: []int{17},
			wantTotal:  17,
			wantRolls:  []int{17},
		},
		{
			name:      "literal only",
			formula:   "12",
			wantTotal: 12,
		},
		{
			name:    "unresolved variable",
			formula: "1d6 + nonsense",
			wantErr: true,
		},
		{
			name:    "empty formula",
			formula: "",
			wantErr: true,
		},
		{
			name:    "trailing operator",
			formula: "2d6+",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := dice.NewMockRoller()
			roller.SetRolls(tt.setupRolls)
			eval := dice.NewEvaluator(roller)

			result, err := eval.Evaluate(tt.formula, tt.vars)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantRolls, result.Rolls)
			assert.NotEmpty(t, result.Detail)
		})
	}
}

func TestEvaluator_ConfigurationErrors(t *testing.T) {
	eval := dice.NewEvaluator(dice.NewMockRoller())

	_, err := eval.Evaluate("1d6 + missing", nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}
