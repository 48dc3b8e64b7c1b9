// Package history records every completed analysis in a SQLite database so
// past verdicts stay queryable after the cache is cleared or files move.
package history
