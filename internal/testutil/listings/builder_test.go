package listings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	raws := NewBuilder().
		WithFixture(FixtureStaleAmazon).
		With("w1", "WM-12345", Days(3), Views(40), Price(`"$4.50"`)).
		Build()

	require.Len(t, raws, 3)
	assert.Equal(t, "stale-1", raws[0].ItemID)
	assert.Equal(t, "w1", raws[2].ItemID)
	assert.Equal(t, 3, *raws[2].DaysListed)
	assert.Equal(t, 40, *raws[2].ViewCount)
	assert.JSONEq(t, `"$4.50"`, string(raws[2].Price))
}

func TestBuilder_FixturesAreNotShared(t *testing.T) {
	first := NewBuilder().WithFixture(FixtureMixed).Build()
	*first[0].DaysListed = 1

	second := NewBuilder().WithFixture(FixtureMixed).Build()
	assert.Equal(t, 90, *second[0].DaysListed)
	assert.Len(t, second, 4)
}
