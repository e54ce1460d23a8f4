package cache

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const solveKeyPrefix = "solve"

// Fingerprint returns a short stable hash of a canonical problem encoding.
func Fingerprint(canonical []byte) string {
	sum := blake2b.Sum256(canonical)
	return hex.EncodeToString(sum[:16])
}

// BuildSolveKey строит ключ кэша для результата решения
func BuildSolveKey(rule, problemHash string) string {
	return fmt.Sprintf("%s:%s:%s", solveKeyPrefix, rule, problemHash)
}

// ProblemPattern matches the keys of every rule for one problem.
func ProblemPattern(problemHash string) string {
	return fmt.Sprintf("%s:*:%s", solveKeyPrefix, problemHash)
}
