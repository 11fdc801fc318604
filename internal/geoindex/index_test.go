package geoindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoleta/ecoleta/internal/model"
)

// Collection points around São Paulo plus one far away in Belo Horizonte.
var samplePoints = []model.Point{
	{ID: 1, Name: "Sé", Latitude: -23.5505, Longitude: -46.6333},
	{ID: 2, Name: "Paulista", Latitude: -23.5614, Longitude: -46.6559},
	{ID: 3, Name: "Santo André", Latitude: -23.6639, Longitude: -46.5383},
	{ID: 4, Name: "Belo Horizonte", Latitude: -19.9167, Longitude: -43.9345},
}

func ids(hits []Hit) []int64 {
	out := make([]int64, len(hits))
	for i, h := range hits {
		out[i] = h.Point.ID
	}
	return out
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, Haversine(1, 1, 1, 1), 1e-9)
	// São Paulo to Belo Horizonte is roughly 490 km.
	assert.InDelta(t, 490, Haversine(-23.5505, -46.6333, -19.9167, -43.9345), 15)
}

func TestRadius(t *testing.T) {
	ix := New()
	ix.Load(samplePoints)
	require.Equal(t, 4, ix.Len())

	hits := ix.Radius(-23.5505, -46.6333, 5)
	assert.Equal(t, []int64{1, 2}, ids(hits))
	assert.InDelta(t, 0, hits[0].DistanceKm, 1e-6)

	hits = ix.Radius(-23.5505, -46.6333, 25)
	assert.Equal(t, []int64{1, 2, 3}, ids(hits))

	assert.Empty(t, ix.Radius(-23.5505, -46.6333, 0))
}

func TestNearest(t *testing.T) {
	ix := New()
	ix.Load(samplePoints)

	hits := ix.Nearest(-19.92, -43.94, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(4), hits[0].Point.ID)

	hits = ix.Nearest(-23.56, -46.65, 10)
	assert.Len(t, hits, 4)
	assert.Equal(t, int64(2), hits[0].Point.ID)
}

func TestPutAndRemove(t *testing.T) {
	ix := New()
	ix.Load(samplePoints[:1])

	ix.Put(model.Point{ID: 9, Latitude: -23.5506, Longitude: -46.6334})
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, []int64{1, 9}, ids(ix.Radius(-23.5505, -46.6333, 1)))

	// Re-putting the same id moves it instead of duplicating it.
	ix.Put(model.Point{ID: 9, Latitude: 10, Longitude: 10})
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, []int64{1}, ids(ix.Radius(-23.5505, -46.6333, 1)))

	ix.Remove(1)
	ix.Remove(1)
	assert.Equal(t, 1, ix.Len())
	assert.Empty(t, ix.Radius(-23.5505, -46.6333, 1))
}

func TestRadiusAcrossAntimeridian(t *testing.T) {
	ix := New()
	ix.Load([]model.Point{
		{ID: 1, Name: "Taveuni east", Latitude: -16.8, Longitude: 179.95},
		{ID: 2, Name: "Taveuni west", Latitude: -16.8, Longitude: -179.95},
		{ID: 3, Name: "Far", Latitude: -16.8, Longitude: 170},
	})

	hits := ix.Radius(-16.8, 179.99, 20)
	assert.Equal(t, []int64{1, 2}, ids(hits))

	hits = ix.Radius(-16.8, -179.99, 20)
	assert.Equal(t, []int64{2, 1}, ids(hits))
}
