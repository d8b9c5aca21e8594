package authflow

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chatline/authflow/identity"
)

// Config is the full client configuration.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Identity   IdentityConfig   `mapstructure:"identity" yaml:"identity"`
	Navigation NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	Audit      AuditConfig      `mapstructure:"audit" yaml:"audit"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

/*
====================================
IDENTITY SERVICE CONFIG
====================================
*/

// IdentityConfig locates and paces the remote identity service.
type IdentityConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	LoginPath         string        `mapstructure:"login_path" yaml:"login_path"`
	RegisterPath      string        `mapstructure:"register_path" yaml:"register_path"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
}

func (c IdentityConfig) clientConfig() identity.Config {
	return identity.Config{
		BaseURL:           c.BaseURL,
		LoginPath:         c.LoginPath,
		RegisterPath:      c.RegisterPath,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		UserAgent:         c.UserAgent,
	}
}

/*
====================================
NAVIGATION CONFIG
====================================
*/

// NavigationConfig names the view routes and the delay between a successful
// submission and the navigation it triggers.
type NavigationConfig struct {
	AuthenticatedRoute    string        `mapstructure:"authenticated_route" yaml:"authenticated_route"`
	LoginRoute            string        `mapstructure:"login_route" yaml:"login_route"`
	RegisterRoute         string        `mapstructure:"register_route" yaml:"register_route"`
	LoginRedirectDelay    time.Duration `mapstructure:"login_redirect_delay" yaml:"login_redirect_delay"`
	RegisterRedirectDelay time.Duration `mapstructure:"register_redirect_delay" yaml:"register_redirect_delay"`
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	BufferSize int  `mapstructure:"buffer_size" yaml:"buffer_size"`
	DropIfFull bool `mapstructure:"drop_if_full" yaml:"drop_if_full"`
}

// MetricsConfig controls in-process metric collection.
type MetricsConfig struct {
	Enabled                 bool `mapstructure:"enabled" yaml:"enabled"`
	EnableLatencyHistograms bool `mapstructure:"enable_latency_histograms" yaml:"enable_latency_histograms"`
}

// Route constants for the three views of the application shell.
const (
	RouteDashboard = "/dashboard"
	RouteLogin     = "/login"
	RouteRegister  = "/register"
)

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Identity: IdentityConfig{
			BaseURL:      "http://localhost:8000/api/",
			LoginPath:    "login/",
			RegisterPath: "register/",
			Timeout:      30 * time.Second,
			UserAgent:    "authflow",
		},
		Navigation: NavigationConfig{
			AuthenticatedRoute:    RouteDashboard,
			LoginRoute:            RouteLogin,
			RegisterRoute:         RouteRegister,
			LoginRedirectDelay:    500 * time.Millisecond,
			RegisterRedirectDelay: 800 * time.Millisecond,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first configuration error, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	// Identity
	if strings.TrimSpace(c.Identity.BaseURL) == "" {
		return errors.New("Identity BaseURL must be set")
	}
	u, err := url.Parse(c.Identity.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Identity BaseURL must be an absolute http(s) URL")
	}
	if c.Identity.Timeout < 0 {
		return errors.New("Identity Timeout must be >= 0")
	}
	if c.Identity.RequestsPerSecond < 0 {
		return errors.New("Identity RequestsPerSecond must be >= 0")
	}
	if c.Identity.Burst < 0 {
		return errors.New("Identity Burst must be >= 0")
	}

	// Navigation
	for name, route := range map[string]string{
		"AuthenticatedRoute": c.Navigation.AuthenticatedRoute,
		"LoginRoute":         c.Navigation.LoginRoute,
		"RegisterRoute":      c.Navigation.RegisterRoute,
	} {
		if !strings.HasPrefix(route, "/") {
			return fmt.Errorf("Navigation %s must start with /", name)
		}
	}
	if c.Navigation.LoginRedirectDelay < 0 || c.Navigation.RegisterRedirectDelay < 0 {
		return errors.New("Navigation redirect delays must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
