// Package dedupe provides a time-bounded seen-cache for message ids, used to
// make at-least-once channel delivery look exactly-once to the rest of the
// core.
package dedupe
