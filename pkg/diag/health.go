/*
 * Copyright 2026 Quantfabric Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package diag

import (
	"github.com/heptiolabs/healthcheck"

	"github.com/quantfabric/memchan/pkg/memchan"
)

// NewHealthHandler returns an HTTP handler with /live and /ready
// endpoints. Every registered channel contributes a liveness check that
// fails when its mapping is gone or the segment header is corrupt.
func NewHealthHandler(reg *memchan.Registry) healthcheck.Handler {
	h := healthcheck.NewHandler()
	for _, ch := range reg.Channels() {
		h.AddLivenessCheck("memchan-"+ch.Name(), channelCheck(ch))
	}
	return h
}

func channelCheck(ch *memchan.Channel) healthcheck.Check {
	return func() error {
		return ch.Check()
	}
}
