package abcxyz_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

func TestDefaultCriteriaValid(t *testing.T) {
	c := abcxyz.DefaultCriteria()

	assert.Equal(t, abcxyz.Criteria{ACut: 0.8, BCut: 0.95, XCut: 0.5, YCut: 0.9}, c)
	assert.NoError(t, c.Validate())
}

func TestCriteriaValidate(t *testing.T) {
	tests := []struct {
		name     string
		criteria abcxyz.Criteria
		relation string
	}{
		{"valid", abcxyz.Criteria{ACut: 0.7, BCut: 0.9, XCut: 0.25, YCut: 0.5}, ""},
		{"y above one", abcxyz.Criteria{ACut: 0.7, BCut: 0.9, XCut: 0.5, YCut: 1.5}, ""},
		{"a above b", abcxyz.Criteria{ACut: 0.9, BCut: 0.5, XCut: 0.5, YCut: 0.9}, abcxyz.RelationABC},
		{"a equals b", abcxyz.Criteria{ACut: 0.8, BCut: 0.8, XCut: 0.5, YCut: 0.9}, abcxyz.RelationABC},
		{"a zero", abcxyz.Criteria{ACut: 0, BCut: 0.8, XCut: 0.5, YCut: 0.9}, abcxyz.RelationABC},
		{"b one", abcxyz.Criteria{ACut: 0.8, BCut: 1, XCut: 0.5, YCut: 0.9}, abcxyz.RelationABC},
		{"a nan", abcxyz.Criteria{ACut: math.NaN(), BCut: 0.8, XCut: 0.5, YCut: 0.9}, abcxyz.RelationABC},
		{"x above y", abcxyz.Criteria{ACut: 0.8, BCut: 0.95, XCut: 0.9, YCut: 0.5}, abcxyz.RelationXYZ},
		{"x negative", abcxyz.Criteria{ACut: 0.8, BCut: 0.95, XCut: -0.1, YCut: 0.5}, abcxyz.RelationXYZ},
		{"y infinite", abcxyz.Criteria{ACut: 0.8, BCut: 0.95, XCut: 0.5, YCut: math.Inf(1)}, abcxyz.RelationXYZ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.criteria.Validate()
			if tt.relation == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, abcxyz.ErrInvalidCriteria))

			var verr *abcxyz.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.relation, verr.Relation)
			assert.Contains(t, err.Error(), tt.relation)
		})
	}
}

func TestCriteriaPatchApply(t *testing.T) {
	a, y := 0.7, 1.1
	patch := abcxyz.CriteriaPatch{ACut: &a, YCut: &y}

	got := patch.Apply(abcxyz.DefaultCriteria())

	assert.Equal(t, abcxyz.Criteria{ACut: 0.7, BCut: 0.95, XCut: 0.5, YCut: 1.1}, got)
	assert.False(t, patch.Empty())
	assert.True(t, abcxyz.CriteriaPatch{}.Empty())
}
