// Package clock provides a small abstraction over time.Now.
//
// The delivery pipeline is full of time-based decisions (quiet hours,
// throttle windows, retry backoff, aggregation buckets); injecting a
// Clocker keeps all of them deterministic under test.
package clock
