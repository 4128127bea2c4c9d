package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/semihalev/zlog/v2"
)

const configver = "1.0.0"

// Environment variables read on top of the config file.
const (
	EnvDNSPort     = "DNS_PORT"
	EnvConfigDir   = "CONFIG_DIR"
	EnvNoDataDelay = "DNS_NODATA_DELAY_MS"
	EnvPodIP       = "POD_IP"
)

const (
	defaultPort         = 53
	defaultConfigDir    = "/config"
	defaultFetchTimeout = 2 * time.Second

	// NoDataDelayFile is the name of the hot-reloaded delay file inside ConfigDir.
	NoDataDelayFile = "dns-nodata-delay-ms"
)

// ErrUnknownLogLevel returned for a loglevel outside debug, info, warn and error.
var ErrUnknownLogLevel = errors.New("unknown log level")

// Config type
type Config struct {
	Version         string
	Bind            string
	Port            int
	PodIP           string
	ConfigDir       string
	NoDataDelay     int64
	LogLevel        string
	AccessLog       string
	API             string
	Kubeconfig      string
	FetchTimeout    Duration
	AccessList      []string
	ClientRateLimit int

	noDataDelaySet bool
	sVersion       string
}

// ServerVersion return current server version
func (c *Config) ServerVersion() string {
	return c.sVersion
}

// NoDataDelaySet reports whether the startup delay came from the environment
// or the config file rather than the built-in default.
func (c *Config) NoDataDelaySet() bool {
	return c.noDataDelaySet
}

// NoDataDelayPath returns the watched delay file location.
func (c *Config) NoDataDelayPath() string {
	return filepath.Join(c.ConfigDir, NoDataDelayFile)
}

// Duration type
type Duration struct {
	time.Duration
}

// UnmarshalText for duration type
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

var defaultConfig = `
# Config version, config and build versions can be different.
version = "%s"

# Address to bind to for the DNS server (udp). Left blank, podip and port are used.
# bind = "10.0.0.10:53"

# DNS port, overridden by the DNS_PORT environment variable
port = 53

# Pod address returned in every answer, overridden by the POD_IP environment variable
# podip = "10.0.0.10"

# Directory holding the dns-nodata-delay-ms file, overridden by CONFIG_DIR
configdir = "/config"

# NoData reply delay in milliseconds used until the delay file is readable,
# overridden by DNS_NODATA_DELAY_MS
# nodatadelay = 0

# What kind of information should be logged, Log verbosity level [error,warn,info,debug]
loglevel = "info"

# The location of access log file, left blank for disabled. Common Log Format is used.
# accesslog = ""

# Address to bind to for the http API server (metrics, health, status), left blank for disabled
api = "127.0.0.1:8080"

# Kubeconfig file used when not running inside a cluster, left blank for defaults
# kubeconfig = ""

# Upper bound for listing ingresses on each query
fetchtimeout = "2s"

# Networks allowed to query, other clients are refused. Left empty, everyone is allowed.
# accesslist = ["10.0.0.0/8", "127.0.0.1/32"]

# Client ip address based ratelimit per minute, 0 for disabled
clientratelimit = 0
`

// Load loads the given config file, then applies environment overrides and defaults.
// A missing file is not an error, the process can be configured by environment only.
func Load(cfgfile, version string) (*Config, error) {
	config := new(Config)

	if cfgfile != "" {
		if _, err := os.Stat(cfgfile); err == nil {
			zlog.Info("Loading config file", "path", cfgfile)

			md, err := toml.DecodeFile(cfgfile, config)
			if err != nil {
				return nil, fmt.Errorf("could not load config: %w", err)
			}

			config.noDataDelaySet = md.IsDefined("nodatadelay")

			if config.Version != configver {
				zlog.Warn("Config file is out of version, you can generate new one and check the changes.")
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("could not stat config: %w", err)
		}
	}

	config.sVersion = version

	config.applyEnv(os.LookupEnv)
	config.setDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDNSPort); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && port > 0 {
			c.Port = port
		}
	}

	if v, ok := lookup(EnvConfigDir); ok && v != "" {
		c.ConfigDir = v
	}

	if v, ok := lookup(EnvNoDataDelay); ok {
		c.noDataDelaySet = true

		ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || ms < 0 {
			ms = 0
		}
		c.NoDataDelay = ms
	}

	if v, ok := lookup(EnvPodIP); ok && v != "" {
		c.PodIP = v
	}
}

func (c *Config) setDefaults() {
	if c.Port <= 0 {
		c.Port = defaultPort
	}

	if c.ConfigDir == "" {
		c.ConfigDir = defaultConfigDir
	}

	if c.NoDataDelay < 0 {
		c.NoDataDelay = 0
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.FetchTimeout.Duration <= 0 {
		c.FetchTimeout.Duration = defaultFetchTimeout
	}

	if c.Bind == "" {
		c.Bind = net.JoinHostPort(c.PodIP, strconv.Itoa(c.Port))
	}
}

func (c *Config) validate() error {
	if c.PodIP == "" {
		return fmt.Errorf("pod address is not set, use %s or podip", EnvPodIP)
	}

	ip := net.ParseIP(c.PodIP)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("pod address %q is not an ipv4 address", c.PodIP)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownLogLevel, c.LogLevel)
	}

	return nil
}

// Generate writes the commented default config to path.
func Generate(path string) error {
	output, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not generate config: %w", err)
	}

	defer func() {
		err := output.Close()
		if err != nil {
			zlog.Warn("Config generation failed while file closing", "error", err.Error())
		}
	}()

	r := strings.NewReader(fmt.Sprintf(defaultConfig, configver))
	if _, err := io.Copy(output, r); err != nil {
		return fmt.Errorf("could not copy default config: %w", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		zlog.Info("Default config file generated", "config", abs)
	}

	return nil
}
