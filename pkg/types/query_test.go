package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhotoQueryFilter(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query PhotoQuery
		check func(t *testing.T, f Filter)
	}{
		{
			name:  "empty query yields empty filter",
			query: PhotoQuery{},
			check: func(t *testing.T, f Filter) {
				assert.Empty(t, f)
			},
		},
		{
			name:  "tags are normalized and match defaults to any",
			query: PhotoQuery{Tags: []string{"Beach", "beach", "Sunset"}},
			check: func(t *testing.T, f Filter) {
				assert.Equal(t, []string{"beach", "sunset"}, f[FilterTags])
				assert.Equal(t, TagMatchAny, f[FilterTagMatch])
			},
		},
		{
			name:  "explicit all match is kept",
			query: PhotoQuery{Tags: []string{"beach"}, TagMatch: TagMatchAll},
			check: func(t *testing.T, f Filter) {
				assert.Equal(t, TagMatchAll, f[FilterTagMatch])
			},
		},
		{
			name:  "date range and paging",
			query: PhotoQuery{DateFrom: &from, Offset: 10, Limit: 5, SortBy: SortFileName, Order: OrderDesc},
			check: func(t *testing.T, f Filter) {
				assert.Equal(t, from, f[FilterDateFrom])
				assert.NotContains(t, f, FilterDateTo)
				assert.Equal(t, 10, f[FilterOffset])
				assert.Equal(t, 5, f[FilterLimit])
				assert.Equal(t, SortFileName, f[FilterSort])
				assert.Equal(t, OrderDesc, f[FilterOrder])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.query.Filter())
		})
	}
}

func TestAlbumQueryFilter(t *testing.T) {
	f := AlbumQuery{Type: AlbumTypeDate, Year: 2024, Month: 6}.Filter()
	assert.Equal(t, Filter{FilterType: AlbumTypeDate, FilterYear: 2024, FilterMonth: 6}, f)
}

func TestSettingsUpdateApply(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, TagMatchAny, s.TagMatch)

	all := TagMatchAll
	year := GranularityYear
	SettingsUpdate{TagMatch: &all, DateGranularity: &year}.Apply(s)
	assert.Equal(t, TagMatchAll, s.TagMatch)
	assert.Equal(t, GranularityYear, s.DateGranularity)
	assert.True(t, s.AutoOrganize)
}
