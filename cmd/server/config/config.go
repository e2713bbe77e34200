package config

import (
	"fmt"
	"time"
)

// BaseConfig is the application configuration tree. Values load from
// config/app.json with environment overrides, in that order.
type BaseConfig struct {
	App         App         `json:"app" koanf:"app"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Notify      Notify      `json:"notify" koanf:"notify"`
}

type App struct {
	Name    string `json:"name" koanf:"name"`
	Address string `json:"address" koanf:"address"`
	BaseURL string `json:"base_url" koanf:"base_url"`
}

type Persistence struct {
	Driver                string `json:"driver" koanf:"driver"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	Server                string `json:"server" koanf:"server"`
	Database              string `json:"database" koanf:"database"`
	Debug                 bool   `json:"debug" koanf:"debug"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

type Auth struct {
	SessionCookieName string `json:"session_cookie_name" koanf:"session_cookie_name"`
	AdminSigningKey   string `json:"admin_signing_key" koanf:"admin_signing_key"`
	AdminIssuer       string `json:"admin_issuer" koanf:"admin_issuer"`
}

type Notify struct {
	TermiiAPIKey   string `json:"termii_api_key" koanf:"termii_api_key"`
	TermiiSenderID string `json:"termii_sender_id" koanf:"termii_sender_id"`
}

func (a BaseConfig) Validate() error {
	if a.Auth.AdminSigningKey == "" {
		return fmt.Errorf("auth.admin_signing_key is required")
	}
	return nil
}

func (a BaseConfig) GetApp() App                 { return a.App }
func (a BaseConfig) GetPersistence() Persistence { return a.Persistence }
func (a BaseConfig) GetAuth() Auth               { return a.Auth }
func (a BaseConfig) GetNotify() Notify           { return a.Notify }

func (a App) GetAddress() string {
	if a.Address == "" {
		return ":8080"
	}
	return a.Address
}

func (a App) GetBaseURL() string {
	if a.BaseURL == "" {
		return "http://localhost:8080"
	}
	return a.BaseURL
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file::memory:?cache=shared"
	}
	return p.DSN
}

func (p Persistence) GetServer() string   { return p.Server }
func (p Persistence) GetDatabase() string { return p.Database }
func (p Persistence) GetDebug() bool      { return p.Debug }

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

func (a Auth) GetSessionCookieName() string {
	if a.SessionCookieName == "" {
		return "dealer_session"
	}
	return a.SessionCookieName
}

func (a Auth) GetAdminSigningKey() string { return a.AdminSigningKey }
func (a Auth) GetAdminIssuer() string     { return a.AdminIssuer }
