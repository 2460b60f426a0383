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

// Package retry provides caller-side polling loops over memchan channels.
//
// The channel core never blocks and never retries; a failover component
// that wants "read with timeout" semantics wraps the channel in one of
// these helpers. Transient conditions (empty channel, ErrBufferFull,
// ErrTornRead) are absorbed by the backoff loop; everything else — and
// backoff exhaustion — surfaces as the terminal error, so the caller only
// ever sees "result" or "no result this attempt".
package retry

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	"github.com/quantfabric/memchan/pkg/memchan"
)

// ErrNoMessage is returned by Receive when the backoff gives up before a
// message arrives.
var ErrNoMessage = errors.New("retry: no message within backoff budget")

// Receive polls ch until a message arrives, the backoff is exhausted, or
// ctx is done. Empty reads and torn reads are retried; corrupt frames and
// lifecycle errors are terminal.
func Receive(ctx context.Context, ch *memchan.Channel, b backoff.BackOff) ([]byte, uint64, error) {
	var (
		payload []byte
		seq     uint64
	)
	op := func() error {
		p, s, err := ch.Read()
		if err != nil {
			if memchan.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if p == nil {
			return ErrNoMessage
		}
		payload, seq = p, s
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, 0, err
	}
	return payload, seq, nil
}

// Send writes payload to ch, retrying transient back-pressure until the
// backoff is exhausted or ctx is done. Oversized payloads and other
// construction errors are terminal on the first attempt.
func Send(ctx context.Context, ch *memchan.Channel, payload []byte, b backoff.BackOff) error {
	op := func() error {
		err := ch.Write(payload)
		if err != nil && !memchan.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
