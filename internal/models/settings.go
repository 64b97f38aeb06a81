package models

// SessionConfig is the site policy for one session type.
type SessionConfig struct {
	AllowedSites []string `json:"allowedSites" yaml:"allowedSites"`
	BlockedSites []string `json:"blockedSites" yaml:"blockedSites"`
}

// GeneralSettings are the process-wide options edited on the options page.
type GeneralSettings struct {
	WarningDelay      int  `json:"warningDelay" yaml:"warningDelay"` // seconds
	AutoStop          bool `json:"autoStop" yaml:"autoStop"`
	InactivityTimeout int  `json:"inactivityTimeout" yaml:"inactivityTimeout"` // minutes
	Notifications     bool `json:"notifications" yaml:"notifications"`
	SoundAlerts       bool `json:"soundAlerts" yaml:"soundAlerts"`
	DataRetention     int  `json:"dataRetention" yaml:"dataRetention"` // days
}

const (
	DefaultWarningDelay      = 60
	DefaultInactivityTimeout = 30
	DefaultDataRetention     = 90
)

// DefaultGeneralSettings returns the settings used when none are stored.
func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{
		WarningDelay:      DefaultWarningDelay,
		AutoStop:          true,
		InactivityTimeout: DefaultInactivityTimeout,
		Notifications:     true,
		SoundAlerts:       false,
		DataRetention:     DefaultDataRetention,
	}
}

// EffectiveWarningDelay treats an unset delay as the default.
func (g GeneralSettings) EffectiveWarningDelay() int {
	if g.WarningDelay <= 0 {
		return DefaultWarningDelay
	}
	return g.WarningDelay
}

// InactivityTimeoutMillis converts the inactivity timeout to milliseconds,
// treating an unset timeout as the default.
func (g GeneralSettings) InactivityTimeoutMillis() int64 {
	minutes := g.InactivityTimeout
	if minutes <= 0 {
		minutes = DefaultInactivityTimeout
	}
	return int64(minutes) * 60 * 1000
}
