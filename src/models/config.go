package models

import "gopkg.in/yaml.v3"

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	LogLevel  string           `yaml:"log_level"`
	Tws       MTwsConfig       `yaml:"tws"`
	UniFeeder MUniFeederConfig `yaml:"unifeeder"`
	WatchDog  MWatchDogConfig  `yaml:"watchdog"`
	Server    MServerConfig    `yaml:"server"`
	Storage   MStorageConfig   `yaml:"storage"`
}

// -----------------------------------------------------------------------------

// MTwsConfig describes the upstream feed connection and the symbol universe.
type MTwsConfig struct {
	Host                   string               `yaml:"host"`
	Port                   int                  `yaml:"port"`
	ClientID               int                  `yaml:"client_id"`
	ReconnectPeriodSeconds int                  `yaml:"reconnect_period_seconds"`
	SweepPeriodSeconds     int                  `yaml:"sweep_period_seconds"`
	RefreshPeriodSeconds   int                  `yaml:"refresh_period_seconds"`
	MarketCalendar         string               `yaml:"market_calendar"` // MIC code, empty disables the market-hours gate
	Mapping                map[string]MContract `yaml:"mapping"`
}

// MContract is the opaque upstream contract descriptor for one symbol.
// Owned by configuration, immutable once loaded.
type MContract struct {
	Symbol      string `yaml:"symbol"`
	SecType     string `yaml:"sec_type"`
	Exchange    string `yaml:"exchange"`
	Currency    string `yaml:"currency"`
	LocalSymbol string `yaml:"local_symbol"`
}

// -----------------------------------------------------------------------------

// MUniFeederConfig describes the downstream broadcast listener.
type MUniFeederConfig struct {
	Ip            string       `yaml:"ip"`
	Port          int          `yaml:"port"`
	Terminator    string       `yaml:"terminator"` // "crlf" (canonical) or "nul" (legacy)
	Authorization []MAuthPair  `yaml:"authorization"`
	Translates    []MTranslate `yaml:"translates"`
}

type MAuthPair struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
}

// IsFilled reports whether both credential fields were captured.
func (a MAuthPair) IsFilled() bool {
	return a.Login != "" && a.Password != ""
}

// -----------------------------------------------------------------------------

// MTranslate is the static per-output-symbol normalization rule.
// Markups and spread bounds are expressed in points of 10^-digits.
// Fix/Min/Max use -1 as "disabled", SigmaSpread uses 0.
type MTranslate struct {
	Symbol          string  `yaml:"symbol"`
	Source          string  `yaml:"source"`
	Digits          int     `yaml:"digits"`
	BidMarkup       int     `yaml:"bid_markup"`
	AskMarkup       int     `yaml:"ask_markup"`
	Percent         float64 `yaml:"percent"`
	Fix             int     `yaml:"fix"`
	Min             int     `yaml:"min"`
	Max             int     `yaml:"max"`
	NumberLastTicks int     `yaml:"number_last_ticks"`
	SigmaSpread     int     `yaml:"sigma_spread"`
}

// UnmarshalYAML applies the rule defaults before decoding so that omitted
// fields read as "disabled" rather than zero.
func (t *MTranslate) UnmarshalYAML(value *yaml.Node) error {
	type rawTranslate MTranslate
	raw := rawTranslate{
		Digits:          1,
		Fix:             -1,
		Min:             -1,
		Max:             -1,
		NumberLastTicks: 10,
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*t = MTranslate(raw)
	return nil
}

// -----------------------------------------------------------------------------

// MWatchDogConfig bounds the critical-error counter that requests an
// external terminal restart.
type MWatchDogConfig struct {
	MaxCriticalErrors int `yaml:"max_critical_errors"`
}

// MServerConfig describes the HTTP status/dashboard listener.
type MServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // "sqlite", "postgres" or "none"
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}
