package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/city-explorer/internal/model"
)

func at(name string, lat, lon float64) model.MergedCity {
	return model.MergedCity{Point: model.CityPoint{Name: name, Latitude: lat, Longitude: lon}}
}

func TestCoordKey(t *testing.T) {
	assert.Equal(t, "44.5,-93.0", CoordKey(44.5, -93.0))
	assert.Equal(t, "44.953703,-93.089958", CoordKey(44.953703, -93.089958))
	assert.Equal(t, "0.0,0.0", CoordKey(0, 0))
}

func TestAssign_SharedCoordinates(t *testing.T) {
	got := Assign([]model.MergedCity{
		at("A", 44.5, -93.0),
		at("B", 44.5, -93.0),
	})
	require.Len(t, got, 2)
	assert.Equal(t, "44.5,-93.0", got[0].MarkerID)
	assert.Equal(t, "44.5,-93.0-2", got[1].MarkerID)
}

func TestAssign_OccurrenceIndexPerKey(t *testing.T) {
	got := Assign([]model.MergedCity{
		at("A", 1, 1),
		at("B", 2, 2),
		at("C", 1, 1),
		at("D", 1, 1),
		at("E", 2, 2),
	})
	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.MarkerID)
	}
	assert.Equal(t, []string{"1.0,1.0", "2.0,2.0", "1.0,1.0-2", "1.0,1.0-3", "2.0,2.0-2"}, ids)
}

func TestAssign_DoesNotMutateInput(t *testing.T) {
	in := []model.MergedCity{at("A", 1, 1)}
	_ = Assign(in)
	assert.Empty(t, in[0].MarkerID)
}

func TestScoreColor(t *testing.T) {
	assert.Equal(t, "hsl(120, 90%, 45%)", ScoreColor(0))
	assert.Equal(t, "hsl(70, 90%, 45%)", ScoreColor(50))
	assert.Equal(t, "hsl(0, 90%, 45%)", ScoreColor(500))
	assert.Equal(t, "hsl(120, 90%, 45%)", ScoreColor(-10))
}
