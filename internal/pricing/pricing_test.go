package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/silkroad-booking/internal/model"
)

func testInventory() model.Inventory {
	return model.Inventory{
		{ID: 7, TypeName: "Double", PricePerNight: 100, TotalPriceForStay: 200, AvailableCount: 3},
		{ID: 8, TypeName: "Suite", PricePerNight: 250, TotalPriceForStay: 500, AvailableCount: 1},
	}
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name      string
		selection map[int]int
		want      float64
	}{
		{
			name:      "empty selection",
			selection: map[int]int{},
			want:      0,
		},
		{
			name:      "nil selection",
			selection: nil,
			want:      0,
		},
		{
			name:      "two of one line",
			selection: map[int]int{7: 2},
			want:      400,
		},
		{
			name:      "several lines",
			selection: map[int]int{7: 1, 8: 1},
			want:      700,
		},
		{
			name:      "stale line contributes zero",
			selection: map[int]int{7: 1, 99: 4},
			want:      200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Total(tt.selection, testInventory()))
		})
	}
}

func TestTotal_RemovedLineEqualsAbsentEntry(t *testing.T) {
	selection := map[int]int{7: 2, 8: 1}

	inv := testInventory()[:1]

	withStale := Total(selection, inv)
	withoutEntry := Total(map[int]int{7: 2}, inv)

	assert.Equal(t, withoutEntry, withStale)
	assert.GreaterOrEqual(t, withStale, 0.0)
}

func TestTotal_EmptyInventory(t *testing.T) {
	assert.Equal(t, 0.0, Total(map[int]int{7: 2}, nil))
}

func TestRooms(t *testing.T) {
	assert.Equal(t, 3, Rooms(map[int]int{7: 2, 8: 1}))
	assert.Equal(t, 0, Rooms(nil))
}
