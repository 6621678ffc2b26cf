// SPDX-License-Identifier: BSD-3-Clause

package curve

import "github.com/hyperfan/hyperfand/pkg/model"

// Default tuning parameters shared by every built-in preset, carried over
// from the platform's reference tuning: 2°C of hysteresis is enough to
// silence breakpoint chatter without masking a real temperature swing, and
// asymmetric ramping lets fans spin up twice as fast as they spin down.
const (
	DefaultHysteresisC  = 2.0
	DefaultSmoothing    = 0.3
	DefaultRampUpPct    = 50.0
	DefaultRampDownPct  = 25.0
	DefaultMinSpeedPct  = 20.0
	FallbackFanPercent  = 100.0
)

func namedCurve(name string, points []model.CurvePoint) model.Curve {
	return model.Curve{
		Name:        name,
		Points:      points,
		HysteresisC: DefaultHysteresisC,
		Smoothing:   DefaultSmoothing,
		RampUpPct:   DefaultRampUpPct,
		RampDownPct: DefaultRampDownPct,
		MinSpeedPct: DefaultMinSpeedPct,
	}
}

// Quiet prioritizes low noise; fans stay near idle until temperatures climb
// well past typical load.
func Quiet() model.Curve {
	return namedCurve("quiet", []model.CurvePoint{
		{TemperatureC: 30, FanPercent: 15},
		{TemperatureC: 50, FanPercent: 25},
		{TemperatureC: 65, FanPercent: 45},
		{TemperatureC: 80, FanPercent: 80},
		{TemperatureC: 90, FanPercent: 100},
	})
}

// Balanced is the default preset used for a fresh binding with no
// user-assigned curve — a middle ground between noise and cooling headroom.
func Balanced() model.Curve {
	return namedCurve("balanced", []model.CurvePoint{
		{TemperatureC: 30, FanPercent: 20},
		{TemperatureC: 50, FanPercent: 40},
		{TemperatureC: 70, FanPercent: 70},
		{TemperatureC: 85, FanPercent: 100},
	})
}

// Performance favors cooling headroom over acoustics.
func Performance() model.Curve {
	return namedCurve("performance", []model.CurvePoint{
		{TemperatureC: 25, FanPercent: 30},
		{TemperatureC: 45, FanPercent: 55},
		{TemperatureC: 60, FanPercent: 80},
		{TemperatureC: 75, FanPercent: 100},
	})
}

// FullSpeed pins every fan at maximum regardless of temperature; used as an
// emergency or manual-override preset, not a tuned curve.
func FullSpeed() model.Curve {
	c := namedCurve("full_speed", []model.CurvePoint{
		{TemperatureC: 0, FanPercent: 100},
		{TemperatureC: 150, FanPercent: 100},
	})
	c.HysteresisC = 0
	c.RampUpPct = 0
	c.RampDownPct = 0
	c.Smoothing = 0
	c.MinSpeedPct = 100
	return c
}

// BuiltinPresets returns the full set of default curves by name.
func BuiltinPresets() map[string]model.Curve {
	return map[string]model.Curve{
		"quiet":       Quiet(),
		"balanced":    Balanced(),
		"performance": Performance(),
		"full_speed":  FullSpeed(),
	}
}
