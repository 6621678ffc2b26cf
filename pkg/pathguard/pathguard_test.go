// SPDX-License-Identifier: BSD-3-Clause

package pathguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSyntax_RejectsForbiddenSequences(t *testing.T) {
	for _, path := range []string{
		"/sys/class/hwmon/../etc/passwd",
		"/sys/class/hwmon//hwmon0",
		"/sys/class/hwmon/$(rm -rf /)",
		"/sys/class/hwmon/hwmon0; rm -rf /",
		"",
	} {
		assert.Error(t, CheckSyntax(path), "expected rejection for %q", path)
	}
}

func TestCheckSyntax_AcceptsCleanPath(t *testing.T) {
	assert.NoError(t, CheckSyntax("/sys/class/hwmon/hwmon0/pwm1"))
}

func TestValidate_AcceptsVirtualGPUPath(t *testing.T) {
	g := New(DefaultHwmonAllowlist()...)
	resolved, err := g.Validate("nvidia:0:1")
	assert.NoError(t, err)
	assert.Equal(t, "nvidia:0:1", resolved)
}

func TestValidate_RejectsMalformedVirtualGPUPath(t *testing.T) {
	g := New(DefaultHwmonAllowlist()...)
	_, err := g.Validate("nvidia:0")
	assert.ErrorIs(t, err, ErrNotAbsolute)
}

func TestValidate_RejectsRelativePath(t *testing.T) {
	g := New(DefaultHwmonAllowlist()...)
	_, err := g.Validate("relative/path")
	assert.ErrorIs(t, err, ErrNotAbsolute)
}

func TestValidate_RejectsPathOutsideAllowlist(t *testing.T) {
	g := New(DefaultHwmonAllowlist()...)
	_, err := g.Validate("/etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideAllowlist)
}

func TestValidate_RejectsTraversalEvenWithAllowedPrefix(t *testing.T) {
	g := New(DefaultHwmonAllowlist()...)
	_, err := g.Validate("/sys/class/hwmon/../../etc/passwd")
	assert.ErrorIs(t, err, ErrForbiddenSequence)
}
