package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParametersAreValid(t *testing.T) {
	params := DefaultParameters()
	require.NoError(t, params.Validate())
	assert.GreaterOrEqual(t, params.SecurityLevel(), 80)
}

func TestParametersValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(Parameters) Parameters
		ok     bool
	}{
		{"default", func(p Parameters) Parameters { return p }, true},
		{"expansion too small", func(p Parameters) Parameters { return p.WithExpansionFactor(2) }, false},
		{"expansion not pow2", func(p Parameters) Parameters { return p.WithExpansionFactor(6) }, false},
		{"expansion 8", func(p Parameters) Parameters { return p.WithExpansionFactor(8) }, true},
		{"zero queries", func(p Parameters) Parameters { return p.WithNumQueries(0) }, false},
		{"bad folding", func(p Parameters) Parameters { p.FoldingFactor = 4; return p }, false},
		{"bad trace cap", func(p Parameters) Parameters { return p.WithMaxTraceLength(1000) }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mutate(DefaultParameters()).Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWithBuildersDoNotMutate(t *testing.T) {
	base := DefaultParameters()
	_ = base.WithExpansionFactor(8).WithNumQueries(10)
	assert.Equal(t, 4, base.ExpansionFactor)
	assert.Equal(t, 40, base.NumQueries)
}
