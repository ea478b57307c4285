package bijection

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(bs ...byte) string {
	return base64.StdEncoding.EncodeToString(bs)
}

func TestCombineSeedComponents_OrderIndependent(t *testing.T) {
	components := []string{b64(1, 2, 3), b64(255, 0), b64(10)}
	reversed := []string{b64(10), b64(255, 0), b64(1, 2, 3)}

	sum1, err := CombineSeedComponents(components)
	require.NoError(t, err)
	sum2, err := CombineSeedComponents(reversed)
	require.NoError(t, err)

	assert.Equal(t, sum1, sum2)
	assert.Equal(t, uint64(1+2+3+255+0+10), sum1)
}

func TestCombineSeedComponents_InvalidBase64(t *testing.T) {
	_, err := CombineSeedComponents([]string{"not-valid-base64!!"})
	assert.Error(t, err)
}

func TestAssign_IsBijection(t *testing.T) {
	santaIDs := []string{"id-c", "id-a", "id-b", "id-d"}
	names := []string{"Dana", "Alice", "Carol", "Bob"}

	assignment := Assign(42, santaIDs, names)
	require.Len(t, assignment, len(santaIDs))

	seen := make(map[string]bool)
	for _, id := range santaIDs {
		name, ok := assignment[id]
		require.True(t, ok)
		assert.False(t, seen[name], "name %q assigned twice", name)
		seen[name] = true
	}
	assert.Len(t, seen, len(names))
}

func TestAssign_Deterministic(t *testing.T) {
	santaIDs := []string{"z", "a", "m"}
	names := []string{"Zed", "Amy", "Max"}

	a := Assign(7, santaIDs, names)
	b := Assign(7, santaIDs, names)
	assert.Equal(t, a, b)
}

func TestGetTargetForSantaID_Missing(t *testing.T) {
	_, ok := GetTargetForSantaID(1, []string{"a", "b"}, []string{"Alice", "Bob"}, "nonexistent")
	assert.False(t, ok)
}

func TestIsSelfAssigned(t *testing.T) {
	santaIDs := []string{"id-1", "id-2", "id-3"}
	names := []string{"Alice", "Bob", "Carol"}
	assignment := Assign(99, santaIDs, names)

	for id, name := range assignment {
		assert.True(t, IsSelfAssigned(99, santaIDs, names, id, name))
		assert.False(t, IsSelfAssigned(99, santaIDs, names, id, name+"-not-it"))
	}
}
