// Package memchan implements lock-free single-producer/single-consumer
// channels over OS shared memory, for sub-millisecond message exchange
// between two processes (for example a decision engine and its execution
// or failover layer).
//
// A channel is a named mmap'd segment with a fixed 32-byte header and a
// data region operated in one of two modes selected at open time:
//
//   - RingQueue: a FIFO byte queue with wraparound. Writes fail fast with
//     ErrBufferFull under back-pressure; reads return each message once,
//     in order.
//   - LatestValue: a single slot holding only the freshest value. Writes
//     always succeed and silently supersede an unread predecessor.
//
// Both modes share one consistency protocol: sequence markers are loaded
// before and after every payload copy, so the consumer either observes a
// fully-published frame or gets ErrTornRead — never silently mixed bytes.
// Strict field ownership (the producer mutates write-side header fields,
// the consumer read-side fields) is what removes the need for any lock.
//
// Nothing in this package blocks. Callers that want blocking semantics
// loop externally; see package retry for backoff-driven helpers.
package memchan
