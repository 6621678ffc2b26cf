// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowLimiter_AllowsUpToLimit(t *testing.T) {
	now := time.Now()
	l := newSlidingWindowLimiter(time.Second, 3)

	assert.True(t, l.Allow(now))
	assert.True(t, l.Allow(now))
	assert.True(t, l.Allow(now))
	assert.False(t, l.Allow(now))
}

func TestSlidingWindowLimiter_ExpiredRequestsFreeCapacity(t *testing.T) {
	now := time.Now()
	l := newSlidingWindowLimiter(time.Second, 1)

	assert.True(t, l.Allow(now))
	assert.False(t, l.Allow(now))
	assert.True(t, l.Allow(now.Add(2*time.Second)))
}

func TestSlidingWindowLimiter_SetLimitTakesEffectImmediately(t *testing.T) {
	now := time.Now()
	l := newSlidingWindowLimiter(time.Second, 1)
	l.SetLimit(2)

	assert.True(t, l.Allow(now))
	assert.True(t, l.Allow(now))
	assert.False(t, l.Allow(now))
}
