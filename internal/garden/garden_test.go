package garden

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileIndexRoundTrip(t *testing.T) {
	for y := 1; y <= Height; y++ {
		for x := 1; x <= Width; x++ {
			v := V(x, y)
			i := TileIndex(v)
			require.GreaterOrEqual(t, i, 1)
			require.LessOrEqual(t, i, TileCount)
			require.Equal(t, v, TileCoords(i), "index %d", i)
		}
	}
	for i := 1; i <= TileCount; i++ {
		require.Equal(t, i, TileIndex(TileCoords(i)))
	}
}

func TestTileIndexExamples(t *testing.T) {
	assert.Equal(t, 18, TileIndex(V(1, 2)))
	assert.Equal(t, V(1, 2), TileCoords(18))
	assert.Equal(t, 1, TileIndex(V(1, 1)))
	assert.Equal(t, 17, TileIndex(V(17, 1)))
	assert.Equal(t, V(17, 1), TileCoords(17))
	assert.Equal(t, TileCount, TileIndex(V(Width, Height)))
}

func TestVectorArithmetic(t *testing.T) {
	a := V(2, 3)
	b := V(5, 7)
	assert.Equal(t, V(7, 10), a.Add(b))
	assert.Equal(t, V(-3, -4), a.Sub(b))
	assert.Equal(t, V(4, 6), a.Mul(2))
	assert.Equal(t, V(2, 3), b.Div(2))
	assert.InDelta(t, 5.0, a.Distance(b), 1e-9)
	assert.Equal(t, "(2, 3)", a.String())
	assert.Equal(t, [2]int{2, 3}, a.Array())
	assert.True(t, a.Equals(V(2, 3)))
	assert.False(t, a.Equals(b))
	// operands are untouched
	assert.Equal(t, V(2, 3), a)
}

func TestInBounds(t *testing.T) {
	assert.True(t, InBounds(V(1, 1)))
	assert.True(t, InBounds(V(Width, Height)))
	assert.False(t, InBounds(V(0, 1)))
	assert.False(t, InBounds(V(1, Height+1)))
	assert.False(t, InBounds(V(Width+1, 3)))
}

func TestNewRectNormalizes(t *testing.T) {
	r := NewRect(V(7, 3), V(2, 6))
	assert.Equal(t, V(2, 3), r.Point1)
	assert.Equal(t, V(7, 6), r.Point2)
	assert.Equal(t, r, r.Normalize())
	assert.Equal(t, r, r.Normalize().Normalize())

	r = Rect{Point1: V(9, 9), Point2: V(5, 5)}.Normalize()
	assert.Equal(t, NewRect(V(5, 5), V(9, 9)), r)
}

func TestRectOverlaps(t *testing.T) {
	a := NewRect(V(2, 3), V(7, 6))
	for _, tc := range []struct {
		name string
		b    Rect
		want bool
	}{
		{"shared corner region", NewRect(V(5, 5), V(9, 9)), true},
		{"disjoint", NewRect(V(8, 1), V(9, 2)), false},
		{"touching edge", NewRect(V(7, 6), V(10, 10)), true},
		{"adjacent column", NewRect(V(8, 3), V(9, 6)), false},
		{"adjacent row", NewRect(V(2, 7), V(7, 12)), false},
		{"contained", NewRect(V(3, 4), V(4, 5)), true},
		{"containing", NewRect(V(1, 1), V(17, 12)), true},
		{"same column band, rows apart", NewRect(V(2, 8), V(7, 9)), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(a), "symmetric")
		})
	}
}

func TestRectPositions(t *testing.T) {
	r := NewRect(V(3, 2), V(2, 3))
	assert.Equal(t, []Vector{V(2, 2), V(3, 2), V(2, 3), V(3, 3)}, r.Positions())
	assert.Equal(t, 4, r.Area())
	assert.Len(t, NewRect(V(1, 1), V(Width, Height)).Positions(), TileCount)
	assert.Nil(t, Rect{Point1: V(3, 3), Point2: V(2, 2)}.Positions())
}

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		background string
		want       State
	}{
		{"", StateEmpty},
		{`url("https://cdn.example/pics/produkte/0.gif") no-repeat`, StateEmpty},
		{`url(https://cdn.example/pics/0.gif)`, StateEmpty},
		{`url("https://cdn.example/pics/produkte/6_01.gif")`, StateGrowing},
		{`url("https://cdn.example/pics/produkte/6_03.gif")`, StateGrowing},
		{`url("https://cdn.example/pics/produkte/6_04.gif") no-repeat`, StateGrown},
		{`url(https://cdn.example/pics/produkte/12_04.gif)`, StateGrown},
		{`url("https://cdn.example/pics/produkte/04.gif")`, StateGrown},
		{`url("https://cdn.example/pics/unkraut_04.gif")`, StateBlocked},
		{`url("https://cdn.example/pics/steine.gif")`, StateBlocked},
		{`url("https://cdn.example/pics/Baumstumpf.gif")`, StateBlocked},
		{`url("https://cdn.example/pics/maulwurf.gif")`, StateBlocked},
	} {
		t.Run(tc.background, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.background))
		})
	}
}

func TestCanWater(t *testing.T) {
	assert.False(t, CanWater(""))
	assert.True(t, CanWater(`url("x/produkte/0.gif")`))
	assert.True(t, CanWater(`url("x/produkte/6_02.gif")`))
	assert.False(t, CanWater(`url("x/produkte/6_04.gif")`))
	assert.False(t, CanWater(`url("x/steine.gif")`))
}

func TestImageNameAndCrop(t *testing.T) {
	bg := `url("https://cdn.example/pics/produkte/14_04.gif") no-repeat`
	assert.Equal(t, "14_04.gif", ImageName(bg))
	seed, ok := CropFromBackground(bg)
	require.True(t, ok)
	assert.Equal(t, Radish, seed)

	_, ok = CropFromBackground(`url("x/produkte/0.gif")`)
	assert.False(t, ok)
	_, ok = CropFromBackground("none")
	assert.False(t, ok)
	assert.Equal(t, "", ImageName("none"))
}

func TestCrops(t *testing.T) {
	assert.Equal(t, "Carrot", CropName(Carrot))
	assert.Equal(t, "#2ecc71", Crop(Lettuce).Border)

	unknown := Crop(99)
	assert.Equal(t, "Crop 99", unknown.Name)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, unknown.Border)
	assert.Equal(t, unknown, Crop(99), "cached")

	assert.Equal(t, []SeedType{Lettuce, Strawberry, Tomato, Carrot, Cucumber, Radish}, KnownSeeds())
	assert.Equal(t, Tool("regal_6"), SeedTool(Carrot))
}
