//
// Copyright 2026 The Waydroid Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_IdleTimerFiresOnInactivity(t *testing.T) {
	m := &Manager{}

	var fired int32
	m.SetIdleTimeout(20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

	m.touch()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestManager_IdleTimerResetByTouch(t *testing.T) {
	m := &Manager{}

	var fired int32
	m.SetIdleTimeout(30*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

	m.touch()
	time.Sleep(15 * time.Millisecond)
	m.touch()
	time.Sleep(15 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestManager_IdleTimerDisabledByDefault(t *testing.T) {
	m := &Manager{}
	m.touch()
	assert.Nil(t, m.idleTimer)
}

func TestManager_TeardownAuxIsIdempotent(t *testing.T) {
	m := &Manager{}
	m.TeardownAux()
	m.TeardownAux()
}
