// Package resultcache persists verdicts keyed by file identity so repeated
// checks of an unchanged file never re-run an analyzer, across process
// restarts.
package resultcache
