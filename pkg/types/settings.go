package types

// SettingsID is the key of the singleton Settings record.
const SettingsID = "settings"

// Settings holds library-wide preferences. The core reads TagMatch,
// AutoOrganize, DateGranularity and PruneEmptyTags; thumbnail values are
// passed through to the thumbnail generator; Theme is opaque.
type Settings struct {
	TagMatch         string      `json:"tagMatch" validate:"oneof=any all"`
	AutoOrganize     bool        `json:"autoOrganize"`
	DateGranularity  Granularity `json:"dateGranularity" validate:"oneof=month year"`
	PruneEmptyTags   bool        `json:"pruneEmptyTags"`
	ThumbnailMaxSize int         `json:"thumbnailMaxSize" validate:"gte=16,lte=4096"`
	ThumbnailQuality int         `json:"thumbnailQuality" validate:"gte=1,lte=100"`
	Theme            string      `json:"theme,omitempty"`
}

// DefaultSettings returns the settings used before any are stored.
// Tag queries match ANY of the requested tags unless configured otherwise.
func DefaultSettings() *Settings {
	return &Settings{
		TagMatch:         TagMatchAny,
		AutoOrganize:     true,
		DateGranularity:  GranularityMonth,
		PruneEmptyTags:   false,
		ThumbnailMaxSize: 320,
		ThumbnailQuality: 80,
	}
}

// SettingsUpdate carries optional changes to Settings.
type SettingsUpdate struct {
	TagMatch         *string      `json:"tagMatch,omitempty" validate:"omitempty,oneof=any all"`
	AutoOrganize     *bool        `json:"autoOrganize,omitempty"`
	DateGranularity  *Granularity `json:"dateGranularity,omitempty" validate:"omitempty,oneof=month year"`
	PruneEmptyTags   *bool        `json:"pruneEmptyTags,omitempty"`
	ThumbnailMaxSize *int         `json:"thumbnailMaxSize,omitempty" validate:"omitempty,gte=16,lte=4096"`
	ThumbnailQuality *int         `json:"thumbnailQuality,omitempty" validate:"omitempty,gte=1,lte=100"`
	Theme            *string      `json:"theme,omitempty"`
}

// Apply copies the set fields of u onto s.
func (u SettingsUpdate) Apply(s *Settings) {
	if u.TagMatch != nil {
		s.TagMatch = *u.TagMatch
	}
	if u.AutoOrganize != nil {
		s.AutoOrganize = *u.AutoOrganize
	}
	if u.DateGranularity != nil {
		s.DateGranularity = *u.DateGranularity
	}
	if u.PruneEmptyTags != nil {
		s.PruneEmptyTags = *u.PruneEmptyTags
	}
	if u.ThumbnailMaxSize != nil {
		s.ThumbnailMaxSize = *u.ThumbnailMaxSize
	}
	if u.ThumbnailQuality != nil {
		s.ThumbnailQuality = *u.ThumbnailQuality
	}
	if u.Theme != nil {
		s.Theme = *u.Theme
	}
}
