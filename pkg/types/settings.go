package types

// Settings is the single flat preferences record. It is always written whole.
type Settings struct {
	Theme      string `json:"theme"`
	ViewMode   string `json:"viewMode"`
	TimeFormat string `json:"timeFormat"`
	MobilePane string `json:"mobilePane"`
}

// Default settings values.
const (
	DefaultTheme      = "light"
	DefaultViewMode   = "list"
	DefaultTimeFormat = "12h"
	DefaultMobilePane = "input"
)

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		Theme:      DefaultTheme,
		ViewMode:   DefaultViewMode,
		TimeFormat: DefaultTimeFormat,
		MobilePane: DefaultMobilePane,
	}
}

// WithDefaults fills empty fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.Theme == "" {
		s.Theme = d.Theme
	}
	if s.ViewMode == "" {
		s.ViewMode = d.ViewMode
	}
	if s.TimeFormat == "" {
		s.TimeFormat = d.TimeFormat
	}
	if s.MobilePane == "" {
		s.MobilePane = d.MobilePane
	}
	return s
}

// Map returns the settings as key/value pairs keyed by their JSON names.
func (s Settings) Map() map[string]string {
	return map[string]string{
		"theme":      s.Theme,
		"viewMode":   s.ViewMode,
		"timeFormat": s.TimeFormat,
		"mobilePane": s.MobilePane,
	}
}

// SettingsFromMap builds Settings from key/value pairs. Unknown keys are
// ignored and missing keys take their defaults.
func SettingsFromMap(m map[string]string) Settings {
	return Settings{
		Theme:      m["theme"],
		ViewMode:   m["viewMode"],
		TimeFormat: m["timeFormat"],
		MobilePane: m["mobilePane"],
	}.WithDefaults()
}
