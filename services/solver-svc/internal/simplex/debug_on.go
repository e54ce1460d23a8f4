//go:build simplexdebug

package simplex

const debugInvariants = true
