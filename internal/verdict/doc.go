// Package verdict holds the pure decision logic that turns a normalized
// measurement into a pass/fail judgment, plus the verdict value types shared
// by the cache, history, and report writers.
package verdict
