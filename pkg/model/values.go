// SPDX-License-Identifier: BSD-3-Clause

package model

import "fmt"

// TemperatureValue is a reading from a temp*_input sysfs attribute, already
// converted from millidegrees to degrees Celsius.
type TemperatureValue struct {
	Celsius float64
	Fault   bool
}

// String implements fmt.Stringer.
func (t TemperatureValue) String() string {
	if t.Fault {
		return "fault"
	}
	return fmt.Sprintf("%.1f°C", t.Celsius)
}

// FanValue is a reading from a fan*_input sysfs attribute.
type FanValue struct {
	RPM   int
	Fault bool
}

// String implements fmt.Stringer.
func (f FanValue) String() string {
	if f.Fault {
		return "fault"
	}
	return fmt.Sprintf("%d RPM", f.RPM)
}

// PWMValue is a pwm* channel's current duty cycle, expressed both as the
// raw 0-255 sysfs byte and as a normalized percentage.
type PWMValue struct {
	Raw     uint8
	Percent float64
}

// PWMFromPercent converts a 0-100 percentage to a PWMValue, rounding to the
// nearest raw byte.
func PWMFromPercent(pct float64) PWMValue {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	raw := uint8(pct*255.0/100.0 + 0.5)
	return PWMValue{Raw: raw, Percent: pct}
}

// PWMFromRaw converts a raw 0-255 sysfs byte to a PWMValue.
func PWMFromRaw(raw uint8) PWMValue {
	return PWMValue{Raw: raw, Percent: float64(raw) * 100.0 / 255.0}
}

// GenericValue carries a reading whose semantic type isn't one of the three
// channel kinds the control loop understands directly — used for attributes
// like *_alarm or *_beep surfaced through diagnostics but never driven.
type GenericValue struct {
	Raw int64
}
