package fit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestLinearExact(t *testing.T) {
	intercept, slope, err := Linear([]float64{0, 1, 2}, []float64{1, 3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, intercept, tol)
	assert.InDelta(t, 2.0, slope, tol)
}

func TestParabolaExact(t *testing.T) {
	a0, a1, a2, err := Parabola([]float64{-1, 0, 1}, []float64{1, 0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, a0, tol)
	assert.InDelta(t, 0.0, a1, tol)
	assert.InDelta(t, 1.0, a2, tol)
}

func TestLinearLeastSquares(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{1.5, 2.5, 5.5, 6.5}
	intercept, slope, err := Linear(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, intercept, 1e-9)
	assert.InDelta(t, 1.8, slope, 1e-9)
}

func TestParabolaOnSkillLevels(t *testing.T) {
	// Lap time falling off quadratically with skill.
	xs := []float64{80, 85, 90, 95, 100, 105, 110}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 200 - 1.5*x + 0.004*x*x
	}
	c, err := Fit(ParabolaModel, xs, ys)
	require.NoError(t, err)
	for _, x := range []float64{78, 92, 112} {
		assert.InDelta(t, 200-1.5*x+0.004*x*x, c.Eval(x), 1e-4)
	}
}

func TestSingularSystem(t *testing.T) {
	cases := []struct {
		name string
		run  func() error
	}{
		{"linear identical xs", func() error {
			_, _, err := Linear([]float64{5, 5, 5}, []float64{1, 2, 3})
			return err
		}},
		{"linear single point", func() error {
			_, _, err := Linear([]float64{5}, []float64{1})
			return err
		}},
		{"linear empty", func() error {
			_, _, err := Linear(nil, nil)
			return err
		}},
		{"parabola two distinct xs", func() error {
			_, _, _, err := Parabola([]float64{1, 2, 1, 2}, []float64{1, 2, 1, 2})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.run(), ErrSingularSystem)
		})
	}
}

func TestLengthMismatch(t *testing.T) {
	_, _, err := Linear([]float64{1, 2}, []float64{1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSingularSystem)
}

func TestPartialPivotingHandlesZeroLeadingPivot(t *testing.T) {
	aug := [][]float64{
		{0, 1, 2},
		{1, 0, 3},
	}
	out, err := solve(aug)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, out[0], tol)
	assert.InDelta(t, 2.0, out[1], tol)
}

func TestCurveEvalAndFit(t *testing.T) {
	c, err := Fit(LinearModel, []float64{0, 1, 2}, []float64{1, 3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 21.0, c.Eval(10), 1e-9)

	p := Curve{Model: ParabolaModel, Coeffs: []float64{1, 0, 2}}
	assert.InDelta(t, 19.0, p.Eval(3), tol)
	assert.Equal(t, "y = 1 +0*x +2*x^2", p.String())

	_, err = Fit(None, []float64{1}, []float64{1})
	assert.Error(t, err)
}

func TestParseModel(t *testing.T) {
	for in, want := range map[string]Model{"": None, "none": None, "Linear": LinearModel, " parabola ": ParabolaModel} {
		got, err := ParseModel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseModel("cubic")
	assert.Error(t, err)
}
