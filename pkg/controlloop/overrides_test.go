// SPDX-License-Identifier: BSD-3-Clause

package controlloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperfan/hyperfand/pkg/model"
)

func TestOverrideTable_SweepDropsExpiredEntries(t *testing.T) {
	now := time.Now()
	tbl := newOverrideTable()
	tbl.Set(model.Override{PWMPath: "/sys/class/hwmon/hwmon0/pwm1", Value: 128, ExpiresAt: now.Add(-time.Second)})
	tbl.Set(model.Override{PWMPath: "/sys/class/hwmon/hwmon0/pwm2", Value: 200, ExpiresAt: now.Add(time.Minute)})

	live := tbl.Sweep(now)
	require.Len(t, live, 1)
	assert.Equal(t, "/sys/class/hwmon/hwmon0/pwm2", live[0].PWMPath)

	// The expired entry must also be gone from the table itself, not just
	// absent from this Sweep's return value.
	assert.False(t, tbl.Active("/sys/class/hwmon/hwmon0/pwm1", now))
}

func TestOverrideTable_ClearRemovesLiveEntry(t *testing.T) {
	now := time.Now()
	tbl := newOverrideTable()
	path := "/sys/class/hwmon/hwmon0/pwm1"
	tbl.Set(model.Override{PWMPath: path, Value: 255, ExpiresAt: now.Add(time.Minute)})
	require.True(t, tbl.Active(path, now))

	tbl.Clear(path)
	assert.False(t, tbl.Active(path, now))
}

func TestOverrideTable_ActiveFalseForUnknownPath(t *testing.T) {
	tbl := newOverrideTable()
	assert.False(t, tbl.Active("/sys/class/hwmon/hwmon0/pwm9", time.Now()))
}
