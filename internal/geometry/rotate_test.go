package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatePoint(t *testing.T) {
	// Left of center rotates to below center on screen.
	p := RotatePoint(Point{X: 0.25, Y: 0.5}, Point{X: 0.5, Y: 0.5}, 90)
	assert.InDelta(t, 0.5, p.X, 1e-12)
	assert.InDelta(t, 0.75, p.Y, 1e-12)
}

func TestRotateBoxes(t *testing.T) {
	boxes := []Box{{MinX: 0.2, MinY: 0.45, MaxX: 0.3, MaxY: 0.55}}

	t.Run("skips small angles", func(t *testing.T) {
		res := RotateBoxes(boxes, 2, 5, Size{})
		assert.False(t, res.Applied())
		require.Len(t, res.Boxes, 1)
		assert.Same(t, &boxes[0], &res.Boxes[0])
	})

	t.Run("rotates in relative frame", func(t *testing.T) {
		res := RotateBoxes(boxes, 90, 5, Size{})
		require.True(t, res.Applied())
		rb := res.Rotated[0]
		assert.InDelta(t, 0.5, rb.CX, 1e-9)
		assert.InDelta(t, 0.75, rb.CY, 1e-9)
		assert.InDelta(t, 0.1, rb.W, 1e-9)
		assert.InDelta(t, 0.1, rb.H, 1e-9)
		assert.Equal(t, 0.0, rb.Angle)
	})

	t.Run("folds the angle and swaps sides", func(t *testing.T) {
		res := RotateBoxes([]Box{{MinX: 0.2, MinY: 0.4, MaxX: 0.3, MaxY: 0.6}}, 100, 5, Size{})
		rb := res.Rotated[0]
		assert.InDelta(t, 10, rb.Angle, 1e-9)
		assert.InDelta(t, 0.2, rb.W, 1e-9)
		assert.InDelta(t, 0.1, rb.H, 1e-9)

		res = RotateBoxes([]Box{{MinX: 0.2, MinY: 0.45, MaxX: 0.4, MaxY: 0.55}}, -90, 5, Size{Width: 200, Height: 100})
		rb = res.Rotated[0]
		assert.InDelta(t, 0, rb.Angle, 1e-9)
		assert.InDelta(t, 10.0/200, rb.W, 1e-9)
		assert.InDelta(t, 40.0/100, rb.H, 1e-9)

		res = RotateBoxes([]Box{{MinX: 0.2, MinY: 0.4, MaxX: 0.3, MaxY: 0.6}}, 200, 5, Size{})
		rb = res.Rotated[0]
		assert.InDelta(t, 20, rb.Angle, 1e-9)
		assert.InDelta(t, 0.1, rb.W, 1e-9)
		assert.InDelta(t, 0.2, rb.H, 1e-9)
	})

	t.Run("rotates in pixel frame", func(t *testing.T) {
		res := RotateBoxes(boxes, 90, 0, Size{Width: 200, Height: 100})
		require.True(t, res.Applied())
		rb := res.Rotated[0]
		// center (50, 50) about (100, 50) by 90 degrees -> (100, 100)
		assert.InDelta(t, 0.5, rb.CX, 1e-9)
		assert.InDelta(t, 1.0, rb.CY, 1e-9)
	})

	t.Run("zero angle with zero threshold still converts", func(t *testing.T) {
		res := RotateBoxes(boxes, 0, 0, Size{})
		require.True(t, res.Applied())
		assert.InDelta(t, 0.25, res.Rotated[0].CX, 1e-12)
		assert.InDelta(t, 0.5, res.Rotated[0].CY, 1e-12)
	})
}

func TestClipBoxes(t *testing.T) {
	boxes := []Box{
		{MinX: -0.1, MinY: 0.2, MaxX: 0.4, MaxY: 0.5},
		{MinX: 1.2, MinY: 0.2, MaxX: 1.4, MaxY: 0.5},
	}
	got := ClipBoxes(boxes, UnitBox)
	require.Len(t, got, 1)
	assert.Equal(t, Box{MinX: 0, MinY: 0.2, MaxX: 0.4, MaxY: 0.5}, got[0])
}

func TestBoxHelpers(t *testing.T) {
	b := NewBox(4, 6, 1, 2)
	assert.Equal(t, Box{MinX: 1, MinY: 2, MaxX: 4, MaxY: 6}, b)
	assert.Equal(t, 3.0, b.Width())
	assert.Equal(t, 4.0, b.Height())
	assert.Equal(t, 12.0, b.Area())
	assert.Equal(t, Point{X: 2.5, Y: 4}, b.Center())
	assert.Equal(t, 0.0, Box{MinX: 1, MaxX: 0, MaxY: 1}.Area())
	assert.True(t, Size{}.IsZero())
	assert.False(t, Size{Width: 2, Height: 3}.IsZero())
}

func TestFitRotatedBox(t *testing.T) {
	frame := Box{MaxX: 10, MaxY: 10}

	inside := RotatedBox{CX: 5, CY: 5, W: 4, H: 2, Angle: 30}
	assert.Equal(t, inside, FitRotatedBox(inside, frame))

	got := FitRotatedBox(RotatedBox{CX: 9, CY: 5, W: 4, H: 2}, frame)
	assert.InDelta(t, 2, got.W, 1e-12)
	assert.InDelta(t, 1, got.H, 1e-12)
	assert.Equal(t, 9.0, got.CX)

	tilted := FitRotatedBox(RotatedBox{CX: 8, CY: 2, W: 6, H: 2, Angle: 20}, frame)
	assert.Less(t, tilted.W, 6.0)
	assert.InDelta(t, 3, tilted.W/tilted.H, 1e-9)
	b := PolygonToBox(RotatedBoxToPolygon(tilted))
	assert.GreaterOrEqual(t, b.MinY, -1e-9)
	assert.LessOrEqual(t, b.MaxX, 10+1e-9)

	outside := FitRotatedBox(RotatedBox{CX: 12, CY: 5, W: 4, H: 2}, frame)
	assert.Zero(t, outside.W)
	assert.Zero(t, outside.H)
}
