package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBranchIsExact(t *testing.T) {
	b, err := ParseBranch("Jutiapa 1")
	require.NoError(t, err)
	assert.Equal(t, BranchJutiapa1, b)

	for _, raw := range []string{"jutiapa 1", " Jutiapa 1", "Jutiapa  1", "Jerez"} {
		_, err := ParseBranch(raw)
		assert.Error(t, err, raw)
	}
}

func TestBranchAbbreviationsCoverAllBranches(t *testing.T) {
	seen := map[string]Branch{}
	for _, b := range Branches() {
		abbr := b.Abbrev()
		require.NotEqual(t, string(b), abbr, "branch %s has no abbreviation", b)
		assert.GreaterOrEqual(t, len(abbr), 3)
		assert.LessOrEqual(t, len(abbr), 6)
		if prev, ok := seen[abbr]; ok {
			t.Fatalf("abbreviation %s shared by %s and %s", abbr, prev, b)
		}
		seen[abbr] = b
	}
	assert.Equal(t, "Jut1", BranchJutiapa1.Abbrev())
}

func TestIsAllBranches(t *testing.T) {
	for _, v := range []string{"", "  ", "all", "ALL", "Todas"} {
		assert.True(t, IsAllBranches(v), v)
	}
	assert.False(t, IsAllBranches("Progreso"))
}

func TestCustomSizesExtendStockSizes(t *testing.T) {
	custom := CustomSizes()
	for _, s := range StockSizes() {
		assert.Contains(t, custom, s)
	}
	assert.Contains(t, custom, SizeBoda)
	assert.Contains(t, custom, SizeQuinceAnos)
	assert.False(t, SizeBoda.IsStock())
}

func TestFlavorOther(t *testing.T) {
	assert.True(t, Flavor("otro").IsOther())
	assert.True(t, FlavorOther.IsOther())
	assert.False(t, FlavorChocolate.IsOther())

	f, err := ParseFlavor("OTRO")
	require.NoError(t, err)
	assert.Equal(t, FlavorOther, f)

	_, err = ParseFlavor("Vainilla")
	assert.Error(t, err)
}

func TestParseOrderKind(t *testing.T) {
	k, err := ParseOrderKind("clientes")
	require.NoError(t, err)
	assert.Equal(t, OrderKindCustom, k)

	k, err = ParseOrderKind("normal")
	require.NoError(t, err)
	assert.Equal(t, OrderKindStock, k)

	_, err = ParseOrderKind("otro")
	assert.Error(t, err)
}
