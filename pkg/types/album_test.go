package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateKeyFor(t *testing.T) {
	taken := time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		g    Granularity
		want DateKey
	}{
		{"month granularity", taken, GranularityMonth, DateKey{Year: 2024, Month: 6}},
		{"year granularity", taken, GranularityYear, DateKey{Year: 2024}},
		{"empty granularity defaults to month", taken, "", DateKey{Year: 2024, Month: 6}},
		{
			name: "converted to UTC before keying",
			at:   time.Date(2024, time.July, 1, 1, 0, 0, 0, time.FixedZone("east", 3*3600)),
			g:    GranularityMonth,
			want: DateKey{Year: 2024, Month: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateKeyFor(tt.at, tt.g))
		})
	}
}

func TestDateKeyNameAndSortKey(t *testing.T) {
	june := DateKey{Year: 2024, Month: 6}
	assert.Equal(t, "June 2024", june.Name())
	assert.Equal(t, 202406, june.SortKey())
	assert.Equal(t, "2024-06", june.String())

	year := DateKey{Year: 2023}
	assert.Equal(t, "2023", year.Name())
	assert.Equal(t, 202300, year.SortKey())
	assert.Equal(t, "2023", year.String())
}

func TestDateKeyValidate(t *testing.T) {
	require.NoError(t, DateKey{Year: 2024, Month: 12}.Validate())
	require.NoError(t, DateKey{Year: 2024}.Validate())

	err := DateKey{Year: 2024, Month: 13}.Validate()
	require.ErrorIs(t, err, ErrValidation)

	err = DateKey{Year: 0, Month: 1}.Validate()
	require.ErrorIs(t, err, ErrValidation)
}

func TestAlbumHelpers(t *testing.T) {
	a := &Album{Type: AlbumTypeDate, Year: 2024, Month: 6, PhotoIDs: []string{"p1", "p2"}}
	assert.True(t, a.IsDate())
	assert.Equal(t, DateKey{Year: 2024, Month: 6}, a.DateKey())
	assert.True(t, a.Contains("p2"))
	assert.False(t, a.Contains("p3"))

	custom := &Album{Type: AlbumTypeCustom}
	assert.False(t, custom.IsDate())
}
