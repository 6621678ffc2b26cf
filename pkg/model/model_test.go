// SPDX-License-Identifier: BSD-3-Clause

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPWMFromPercent_ClampsAndRounds(t *testing.T) {
	assert.Equal(t, uint8(0), PWMFromPercent(-10).Raw)
	assert.Equal(t, uint8(255), PWMFromPercent(150).Raw)
	assert.Equal(t, uint8(128), PWMFromPercent(50).Raw)
}

func TestPWMFromRaw_RoundTripsApproximately(t *testing.T) {
	v := PWMFromRaw(255)
	assert.InDelta(t, 100.0, v.Percent, 0.01)
}

func TestValidationState_DrivableByControlLoop(t *testing.T) {
	assert.True(t, ValidationOk.DrivableByControlLoop())
	assert.True(t, ValidationDegraded.DrivableByControlLoop())
	assert.False(t, ValidationNeedsRebind.DrivableByControlLoop())
	assert.False(t, ValidationUnsafe.DrivableByControlLoop())
}

func TestOverride_Expired(t *testing.T) {
	now := time.Now()
	o := Override{ExpiresAt: now.Add(time.Second)}
	assert.False(t, o.Expired(now))
	assert.True(t, o.Expired(now.Add(2*time.Second)))
}

func TestCurve_Validate_RejectsNonAscendingPoints(t *testing.T) {
	c := &Curve{
		Name: "bad",
		Points: []CurvePoint{
			{TemperatureC: 50, FanPercent: 30},
			{TemperatureC: 40, FanPercent: 60},
		},
	}
	assert.ErrorIs(t, c.Validate(), ErrInvalidCurve)
}

func TestCurve_Validate_RejectsTooManyPoints(t *testing.T) {
	c := &Curve{Name: "overflow"}
	for i := 0; i <= MaxCurvePoints; i++ {
		c.Points = append(c.Points, CurvePoint{TemperatureC: float64(i), FanPercent: 10})
	}
	assert.ErrorIs(t, c.Validate(), ErrInvalidCurve)
}

func TestCurve_Validate_RejectsOutOfBoundsHysteresis(t *testing.T) {
	c := &Curve{
		Name:        "bad-hysteresis",
		Points:      []CurvePoint{{TemperatureC: 30, FanPercent: 20}},
		HysteresisC: MaxHysteresisC + 1,
	}
	assert.ErrorIs(t, c.Validate(), ErrInvalidCurve)
}

func TestCurve_Validate_AcceptsWellFormedCurve(t *testing.T) {
	c := &Curve{
		Name: "ok",
		Points: []CurvePoint{
			{TemperatureC: 30, FanPercent: 20},
			{TemperatureC: 60, FanPercent: 50},
			{TemperatureC: 80, FanPercent: 100},
		},
		HysteresisC: 2,
		DelayMS:     500,
		RampUpPct:   20,
		RampDownPct: 10,
	}
	assert.NoError(t, c.Validate())
}

func TestAnchor_Validate_RejectsUnknownKind(t *testing.T) {
	a := Anchor{Kind: AnchorKind("bogus")}
	assert.ErrorIs(t, a.Validate(), ErrInvalidAnchor)
}

func TestChannel_SortedAttributeFingerprint(t *testing.T) {
	c := &Channel{AttributeFingerprint: []string{"pwm1_enable", "pwm1", "pwm1_mode"}}
	sorted := c.SortedAttributeFingerprint()
	assert.Equal(t, []string{"pwm1", "pwm1_enable", "pwm1_mode"}, sorted)
	assert.Equal(t, []string{"pwm1_enable", "pwm1", "pwm1_mode"}, c.AttributeFingerprint, "must not mutate the receiver")
}
