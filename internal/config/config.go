// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	toml "github.com/pelletier/go-toml/v2"

	"api-gateway-go/internal/route"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/api-gateway/config.toml",
	"configs/config.toml",
}

// Paths served by the gateway itself. Route prefixes may not cover them.
const (
	HealthPath = "/health"
	StatusPath = "/gateway/status"

	DefaultMetricsPath = "/metrics"
)

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config         string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host           string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port           int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	TimeoutSeconds int    `kong:"help='Outbound request timeout in seconds (overrides config).',env='UPSTREAM_TIMEOUT_SECONDS'"`
	LogLevel       string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Routes   []RouteConfig  `toml:"routes"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"` // 0 means "use default" (8080); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64  `toml:"body_max_bytes"`
}

// UpstreamConfig holds settings shared by every outbound backend call.
type UpstreamConfig struct {
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
	RewritePolicy   string `toml:"rewrite_policy"`
	// ForwardHeaders lists inbound request headers copied to the backend.
	// Empty means no client headers are forwarded.
	ForwardHeaders []string `toml:"forward_headers"`
}

// RouteConfig maps a path prefix to a backend base URL.
type RouteConfig struct {
	Prefix  string `toml:"prefix"`
	Backend string `toml:"backend"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/api-gateway/config.toml then configs/config.toml.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return nil, fmt.Errorf("config: no config file found (searched %v)", configSearchPaths)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.filePath = path
	cfg.applyCLI(cli)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.TimeoutSeconds != 0 {
		c.Upstream.TimeoutSeconds = cli.TimeoutSeconds
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

// Validate checks every section, then the route set as a whole. Zero values
// are accepted where setDefaults fills them in.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Upstream),
		validation.Field(&c.Routes,
			validation.Required.Error("at least one [[routes]] entry is required"),
		),
		validation.Field(&c.Log),
		validation.Field(&c.Metrics),
	)
	if err != nil {
		return err
	}
	return c.validateRouteSet()
}

// Validate implements validation.Validatable.
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Host, is.Host),
		validation.Field(&s.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&s.BodyMaxBytes, validation.Min(int64(0))),
	)
}

// Validate implements validation.Validatable.
func (u UpstreamConfig) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.TimeoutSeconds, validation.Min(0)),
		validation.Field(&u.IdleConnections, validation.Min(0)),
		validation.Field(&u.RewritePolicy, validation.By(func(v interface{}) error {
			if _, err := route.ParsePolicy(v.(string)); err != nil {
				return validation.NewError("validation_rewrite_policy", err.Error())
			}
			return nil
		})),
		validation.Field(&u.ForwardHeaders, validation.Each(validation.By(validateHeaderName))),
	)
}

// Validate implements validation.Validatable.
func (r RouteConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Prefix,
			validation.Required,
			validation.By(func(v interface{}) error {
				p := v.(string)
				if !strings.HasPrefix(p, "/") {
					return validation.NewError("validation_prefix_slash", "must start with '/'")
				}
				if strings.Trim(p, "/") == "" {
					return validation.NewError("validation_prefix_root", "must name at least one path segment")
				}
				return nil
			}),
		),
		validation.Field(&r.Backend, validation.Required, validation.By(validateBackendURL)),
	)
}

// Validate implements validation.Validatable.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.By(lowerIn("debug", "info", "warn", "error"))),
		validation.Field(&l.Format, validation.By(lowerIn("json", "text"))),
	)
}

// Validate implements validation.Validatable.
func (m MetricsConfig) Validate() error {
	if !m.Enabled || m.Path == "" {
		return nil
	}
	return validation.ValidateStruct(&m,
		validation.Field(&m.Path, validation.By(func(v interface{}) error {
			p := v.(string)
			if p[0] != '/' {
				return validation.NewError("validation_path_slash", "must start with '/'")
			}
			for _, reserved := range []string{HealthPath, StatusPath} {
				if route.Match(reserved, p) {
					return validation.NewError("validation_path_reserved", fmt.Sprintf("conflicts with reserved route %q", reserved))
				}
			}
			return nil
		})),
	)
}

// validateRouteSet rejects route prefixes that would cover a path the gateway
// serves itself, and prefixes that overlap each other.
func (c *Config) validateRouteSet() error {
	reserved := c.ReservedPaths()
	for i, r := range c.Routes {
		prefix := strings.TrimRight(r.Prefix, "/")
		for _, p := range reserved {
			if route.Match(prefix, p) || route.Match(p, prefix) {
				return fmt.Errorf("routes[%d]: prefix %q conflicts with reserved route %q", i, r.Prefix, p)
			}
		}
	}
	_, err := c.RouteTable()
	return err
}

// ReservedPaths returns the paths served by the gateway itself.
func (c *Config) ReservedPaths() []string {
	paths := []string{HealthPath, StatusPath}
	if c.Metrics.Enabled {
		p := c.Metrics.Path
		if p == "" {
			p = DefaultMetricsPath
		}
		paths = append(paths, p)
	}
	return paths
}

// RouteTable builds the immutable route table from the [[routes]] entries.
func (c *Config) RouteTable() (*route.Table, error) {
	routes := make([]route.Route, 0, len(c.Routes))
	for i, r := range c.Routes {
		u, err := url.Parse(r.Backend)
		if err != nil {
			return nil, fmt.Errorf("routes[%d]: parse backend: %w", i, err)
		}
		routes = append(routes, route.Route{Prefix: r.Prefix, Backend: u})
	}
	return route.New(routes)
}

// Policy returns the configured rewrite policy. Load has already validated it.
func (u UpstreamConfig) Policy() route.RewritePolicy {
	p, err := route.ParsePolicy(u.RewritePolicy)
	if err != nil {
		return route.PassThrough
	}
	return p
}

// Timeout returns the outbound request timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 30
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Upstream.RewritePolicy == "" {
		c.Upstream.RewritePolicy = string(route.PassThrough)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func validateBackendURL(value interface{}) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "must use http or https scheme")
	}
	if u.Host == "" {
		return validation.NewError("validation_missing_host", "must have a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return validation.NewError("validation_backend_query", "must not carry a query or fragment")
	}
	return nil
}

func validateHeaderName(value interface{}) error {
	name, _ := value.(string)
	if name == "" || strings.ContainsAny(name, " \t:\r\n") {
		return validation.NewError("validation_header_name", "must be a valid header name")
	}
	if http.CanonicalHeaderKey(name) == "Host" {
		return validation.NewError("validation_header_host", "Host is set from the backend URL")
	}
	return nil
}

// lowerIn matches case-insensitively; empty is allowed and later defaulted.
func lowerIn(allowed ...string) validation.RuleFunc {
	return func(value interface{}) error {
		s := strings.ToLower(value.(string))
		if s == "" {
			return nil
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return validation.NewError("validation_in_invalid", "must be one of: "+strings.Join(allowed, ", "))
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
