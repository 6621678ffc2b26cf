// SPDX-License-Identifier: BSD-3-Clause

package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveConfigDir_OverrideTakesPrecedence(t *testing.T) {
	sup := New(WithConfigDir("/tmp/hyperfan-test-config"))

	dir, err := sup.resolveConfigDir()
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/hyperfan-test-config", dir)
}

func TestDefaultConfig_HasSaneTimeouts(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, DefaultOversightTimeout, cfg.oversightTimeout)
	assert.Equal(t, DefaultECIOPath, cfg.ecIOPath)
}
