// Package bijection derives the deterministic Santa-ID → recipient-name
// permutation from a pooled seed, including the self-assignment check
// (see core/game/verification.go).
package bijection

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/frostbyte-dev/santa-ring/core/pcg32"
)

// CombineSeedComponents base64-decodes each component and sums every byte,
// across all components, with wraparound at 2^64. The result is
// order-independent by construction (addition is commutative).
func CombineSeedComponents(components []string) (uint64, error) {
	var sum uint64
	for _, c := range components {
		raw, err := base64.StdEncoding.DecodeString(c)
		if err != nil {
			return 0, fmt.Errorf("decode seed component: %w", err)
		}
		for _, b := range raw {
			sum += uint64(b)
		}
	}
	return sum, nil
}

// Assign computes the full sorted-santaID→sorted-name permutation for a
// pooled seed, by drawing without replacement from PCG32 exactly as the
// reference Fisher-Yates-style draw does.
func Assign(seed uint64, santaIDs, names []string) map[string]string {
	sortedIDs := append([]string(nil), santaIDs...)
	sortedNames := append([]string(nil), names...)
	sort.Strings(sortedIDs)
	sort.Strings(sortedNames)

	available := make([]int, len(sortedIDs))
	for i := range available {
		available[i] = i
	}

	rng := pcg32.New(seed)
	result := make(map[string]string, len(sortedIDs))
	for _, id := range sortedIDs {
		pick := rng.GenRange(uint32(len(available)))
		target := available[pick]
		available = append(available[:pick], available[pick+1:]...)
		result[id] = sortedNames[target]
	}
	return result
}

// GetTargetForSantaID returns the name assigned to querySantaID under the
// given pooled seed, or "", false if querySantaID is not in santaIDs.
func GetTargetForSantaID(seed uint64, santaIDs, names []string, querySantaID string) (string, bool) {
	assignment := Assign(seed, santaIDs, names)
	name, ok := assignment[querySantaID]
	return name, ok
}

// IsSelfAssigned reports whether querySantaID's bijection target is
// accuserName, the condition that validates a rejection proof.
func IsSelfAssigned(seed uint64, santaIDs, names []string, querySantaID, accuserName string) bool {
	target, ok := GetTargetForSantaID(seed, santaIDs, names, querySantaID)
	return ok && target == accuserName
}
