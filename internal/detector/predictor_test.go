package detector

import (
	"context"
	"errors"
	"testing"

	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
	"github.com/MeKo-Tech/docweave/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeModel(calls *int) DetectionModelFunc {
	return func(_ context.Context, pages []raster.Image) ([]ProbabilityMap, error) {
		*calls++
		maps := make([]ProbabilityMap, len(pages))
		for i := range pages {
			maps[i] = twoWords()
		}
		return maps, nil
	}
}

func TestPredictor_Predict(t *testing.T) {
	calls := 0
	p := NewPredictor(fakeModel(&calls), newExtractor(t, nil), batch.Options{MaxWorkers: 2})
	res, err := p.Predict(context.Background(), []raster.Image{raster.NewImage(64, 64, 3), raster.NewImage(64, 64, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, res, 2)
	assert.Len(t, res[1].Boxes, 2)
}

func TestPredictor_RejectsFlatPagesBeforeModel(t *testing.T) {
	calls := 0
	p := NewPredictor(fakeModel(&calls), newExtractor(t, nil), batch.Options{})
	pages := []raster.Image{
		raster.NewImage(8, 8, 3),
		{Shape: []int{8, 8}, Pix: make([]uint8, 64)},
	}
	_, err := p.Predict(context.Background(), pages)
	var sm *ocrerr.ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, 1, sm.Page)
	assert.Equal(t, []int{8, 8}, sm.Shape)
	assert.Zero(t, calls)
}

func TestPredictor_ModelErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := DetectionModelFunc(func(context.Context, []raster.Image) ([]ProbabilityMap, error) {
		return nil, boom
	})
	p := NewPredictor(failing, newExtractor(t, nil), batch.Options{})
	_, err := p.Predict(context.Background(), []raster.Image{raster.NewImage(4, 4, 1)})
	assert.ErrorIs(t, err, boom)

	short := DetectionModelFunc(func(context.Context, []raster.Image) ([]ProbabilityMap, error) {
		return nil, nil
	})
	p = NewPredictor(short, newExtractor(t, nil), batch.Options{})
	_, err = p.Predict(context.Background(), []raster.Image{raster.NewImage(4, 4, 1)})
	var sm *ocrerr.ShapeMismatchError
	assert.ErrorAs(t, err, &sm)
}

func TestPredictor_NoPages(t *testing.T) {
	calls := 0
	p := NewPredictor(fakeModel(&calls), newExtractor(t, nil), batch.Options{})
	res, err := p.Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Zero(t, calls)
}
