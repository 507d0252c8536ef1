// Package legacycache relocates cached files from the deprecated temp
// directory layout into the current tmp layout during application upgrades.
// The migration runs at most once per data root: concurrent runners are
// serialized through an exclusive-create lock file and completed work is
// recorded by a persistent done marker.
package legacycache
