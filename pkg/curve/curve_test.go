// SPDX-License-Identifier: BSD-3-Clause

package curve_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperfan/hyperfand/pkg/curve"
	"github.com/hyperfan/hyperfand/pkg/model"
)

func plainCurve() model.Curve {
	return model.Curve{
		Name: "test",
		Points: []model.CurvePoint{
			{TemperatureC: 30, FanPercent: 20},
			{TemperatureC: 50, FanPercent: 40},
			{TemperatureC: 70, FanPercent: 70},
			{TemperatureC: 85, FanPercent: 100},
		},
	}
}

func TestCalculate_MonotoneCurveProducesMonotoneOutput(t *testing.T) {
	e := curve.New(plainCurve())
	base := time.Now()

	temps := []float64{20, 35, 45, 55, 65, 75, 90}
	var last float64 = -1
	for i, tc := range temps {
		// Space calls far enough apart that ramp/smoothing/delay (all zero
		// here) can't mask the underlying monotonicity of interpolation.
		out, err := e.Calculate(base.Add(time.Duration(i)*time.Hour), tc)
		require.NoError(t, err)
		assert.GreaterOrEqualf(t, out, last, "output must be monotone non-decreasing at temp=%v", tc)
		last = out
	}
}

func TestCalculate_BelowFirstPointClampsToFirstPercent(t *testing.T) {
	e := curve.New(plainCurve())
	out, err := e.Calculate(time.Now(), 10)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, out, 0.5)
}

func TestCalculate_AboveLastPointClampsToLastPercent(t *testing.T) {
	e := curve.New(plainCurve())
	out, err := e.Calculate(time.Now(), 120)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, out, 0.5)
}

func TestCalculate_RejectsNonFiniteTemperature(t *testing.T) {
	e := curve.New(plainCurve())
	_, err := e.Calculate(time.Now(), math.NaN())
	require.ErrorIs(t, err, curve.ErrNonFiniteTemperature)
}

func TestCalculate_HysteresisSuppressesSmallOscillation(t *testing.T) {
	c := plainCurve()
	c.HysteresisC = 2.0
	e := curve.New(c)
	now := time.Now()

	first, err := e.Calculate(now, 50)
	require.NoError(t, err)
	require.InDelta(t, 40.0, first, 0.5)

	// A temperature wiggle within the hysteresis band should hold near the
	// prior output rather than chase the new raw target immediately.
	second, err := e.Calculate(now.Add(2*time.Second), 50.5)
	require.NoError(t, err)
	assert.InDelta(t, first, second, 2.0)
}

func TestCalculate_RampCapsChangePerElapsedTime(t *testing.T) {
	c := plainCurve()
	c.RampUpPct = 10 // %/s
	c.RampDownPct = 10
	c.HysteresisC = 0
	c.Smoothing = 0
	e := curve.New(c)
	now := time.Now()

	_, err := e.Calculate(now, 30) // settles near 20%
	require.NoError(t, err)

	// Jump straight to a temperature whose raw target is 100%; only 1
	// second has elapsed, so ramp should cap the change to ~10 points.
	out, err := e.Calculate(now.Add(1*time.Second), 90)
	require.NoError(t, err)
	assert.Less(t, out, 35.0)
}

func TestCalculate_MinSpeedFloorAppliesOnlyWhenAboveZero(t *testing.T) {
	c := plainCurve()
	c.MinSpeedPct = 25
	c.Points[0].FanPercent = 5
	e := curve.New(c)

	out, err := e.Calculate(time.Now(), 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out, 25.0)
}

func TestReset_ClearsHysteresisState(t *testing.T) {
	e := curve.New(plainCurve())
	now := time.Now()
	_, err := e.Calculate(now, 50)
	require.NoError(t, err)

	e.Reset()

	out, err := e.Calculate(now.Add(time.Second), 30)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, out, 0.5)
}

func TestBuiltinPresets_AllValidateSuccessfully(t *testing.T) {
	for name, preset := range curve.BuiltinPresets() {
		p := preset
		err := p.Validate()
		assert.NoErrorf(t, err, "preset %s failed validation", name)
	}
}
