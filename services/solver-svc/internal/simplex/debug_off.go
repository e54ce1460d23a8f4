//go:build !simplexdebug

package simplex

// debugInvariants enables internal consistency checks. Build with
// -tags simplexdebug to turn them on.
const debugInvariants = false
