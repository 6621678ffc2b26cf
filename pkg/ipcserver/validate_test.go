// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePWMValue(t *testing.T) {
	v, err := validatePWMValue(128)
	assert.NoError(t, err)
	assert.Equal(t, uint8(128), v)

	_, err = validatePWMValue(256)
	assert.Error(t, err)

	_, err = validatePWMValue(1.5)
	assert.Error(t, err)

	_, err = validatePWMValue(-1)
	assert.Error(t, err)
}

func TestValidatePercent(t *testing.T) {
	assert.NoError(t, validatePercent(0))
	assert.NoError(t, validatePercent(100))
	assert.Error(t, validatePercent(-0.1))
	assert.Error(t, validatePercent(100.1))
}

func TestValidateOverrideTTL(t *testing.T) {
	_, err := validateOverrideTTL(49)
	assert.Error(t, err)

	_, err = validateOverrideTTL(30001)
	assert.Error(t, err)

	d, err := validateOverrideTTL(1000)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), d.Milliseconds())
}

func TestValidateECRangeCount(t *testing.T) {
	assert.NoError(t, validateECRangeCount(1))
	assert.NoError(t, validateECRangeCount(64))
	assert.Error(t, validateECRangeCount(0))
	assert.Error(t, validateECRangeCount(65))
}

func TestValidateRateLimit(t *testing.T) {
	assert.NoError(t, validateRateLimit(1500))
	assert.NoError(t, validateRateLimit(9999))
	assert.Error(t, validateRateLimit(1499))
	assert.Error(t, validateRateLimit(10000))
}
