package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vttforge/areatrigger/internal/errors"
	"github.com/vttforge/areatrigger/internal/rules/expr"
)

func TestEval(t *testing.T) {
	vars := map[string]int{
		"target.hp":      8,
		"target.max_hp":  20,
		"target.dex_mod": 2,
		"source.level":   5,
	}

	tests := []struct {
		name       string
		expression string
		want       bool
		wantErr    bool
	}{
		{name: "simple comparison", expression: "target.hp < 10", want: true},
		{name: "comparison false", expression: "target.hp >= 10", want: false},
		{name: "equality", expression: "source.level == 5", want: true},
		{name: "inequality", expression: "source.level != 5", want: false},
		{name: "and", expression: "target.hp < 10 && source.level >= 3", want: true},
		{name: "and short circuit false", expression: "target.hp > 10 && source.level >= 3", want: false},
		{name: "or", expression: "target.hp > 10 || target.dex_mod == 2", want: true},
		{name: "not", expression: "!(target.hp > 10)", want: true},
		{name: "word operators", expression: "target.hp < 10 and not (source.level < 2)", want: true},
		{name: "parenthesized", expression: "(target.hp < 10 || target.hp > 15) && source.level == 5", want: true},
		{name: "bare variable truthy", expression: "target.dex_mod", want: true},
		{name: "negative literal", expression: "target.dex_mod > -1", want: true},
		{name: "host-style at prefix", expression: "@target.hp < @target.max_hp", want: true},
		{name: "unresolved variable", expression: "target.unknown > 0", wantErr: true},
		{name: "empty expression", expression: "", wantErr: true},
		{name: "single equals rejected", expression: "target.hp = 8", wantErr: true},
		{name: "trailing garbage", expression: "target.hp < 10 target.hp", wantErr: true},
		{name: "unclosed paren", expression: "(target.hp < 10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expr.Eval(tt.expression, vars)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalAll(t *testing.T) {
	vars := map[string]int{"a": 1, "b": 0}

	ok, err := expr.EvalAll(nil, vars)
	require.NoError(t, err)
	assert.True(t, ok, "empty requirement list is satisfied")

	ok, err = expr.EvalAll([]string{"a == 1", "b == 0"}, vars)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = expr.EvalAll([]string{"a == 1", "b == 1"}, vars)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = expr.EvalAll([]string{"missing > 0"}, vars)
	require.Error(t, err)
}
