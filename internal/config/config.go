package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "iptvscan"

	// DefaultSource is the public iptv-org index playlist.
	DefaultSource = "https://iptv-org.github.io/iptv/index.m3u"

	// DefaultConcurrency is the global cap on probes in flight.
	DefaultConcurrency = 200

	// DefaultPerHost is the cap on probes in flight against one host.
	// Playlists often list hundreds of streams on a single CDN host.
	DefaultPerHost = 100

	// DefaultTimeout bounds each probe, including connect and headers.
	DefaultTimeout = 1 * time.Second

	// DefaultProgressInterval is the number of completions between progress lines.
	DefaultProgressInterval = 200

	// DefaultMethod is the request method used for probes.
	DefaultMethod = "HEAD"

	// DefaultUserAgent is sent with every probe. Some stream servers reject
	// requests without a browser-like agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Export format names.
const (
	FormatCSV      = "csv"
	FormatTXT      = "txt"
	FormatM3U      = "m3u"
	FormatMarkdown = "md"
	FormatJSON     = "json"
	FormatSQLite   = "sqlite"
)

// SupportedFormats lists every export format in the order reports are written.
var SupportedFormats = []string{FormatCSV, FormatTXT, FormatM3U, FormatMarkdown, FormatJSON, FormatSQLite}

// DefaultFormats are written when no format is configured.
var DefaultFormats = []string{FormatCSV, FormatTXT, FormatM3U}

// Config holds all options of a scan run.
type Config struct {
	// Source is the playlist URL or local file path.
	Source string

	// Concurrency is the global cap on probes in flight.
	Concurrency int

	// PerHost is the cap on probes in flight against one host.
	PerHost int

	// Timeout bounds a single probe.
	Timeout time.Duration

	// ProgressInterval is the number of completions between progress lines.
	ProgressInterval int

	// Method is HEAD or GET.
	Method string

	// UserAgent is sent with every probe.
	UserAgent string

	// Headers are extra request headers sent with every probe.
	Headers map[string]string

	// Proxy is an optional socks5:// upstream for probes.
	Proxy string

	// Rate limits probe starts per second. Zero means unlimited.
	Rate float64

	// Formats are the export formats to write.
	Formats []string

	// OutputDir is the directory export files are written to.
	OutputDir string

	// OnlyAvailable restricts exports to available entries.
	OnlyAvailable bool

	// ListOnly prints the parsed playlist without probing.
	ListOnly bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit configuration file. When empty the
	// file is searched for, see FindConfigFile.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Source:           DefaultSource,
		Concurrency:      DefaultConcurrency,
		PerHost:          DefaultPerHost,
		Timeout:          DefaultTimeout,
		ProgressInterval: DefaultProgressInterval,
		Method:           DefaultMethod,
		UserAgent:        DefaultUserAgent,
		Headers:          make(map[string]string),
		Formats:          slices.Clone(DefaultFormats),
		OutputDir:        ".",
	}
}

// XDGConfigDir returns the XDG config directory for iptvscan.
// On Linux: ~/.config/iptvscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Apply copies every value set in the file over c.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	if f.Source != "" {
		c.Source = f.Source
	}

	p := f.Probe
	if p.Concurrency != 0 {
		c.Concurrency = p.Concurrency
	}
	if p.PerHost != 0 {
		c.PerHost = p.PerHost
	}
	if p.Timeout != 0 {
		c.Timeout = p.Timeout
	}
	if p.ProgressInterval != 0 {
		c.ProgressInterval = p.ProgressInterval
	}
	if p.Method != "" {
		c.Method = p.Method
	}
	if p.UserAgent != "" {
		c.UserAgent = p.UserAgent
	}
	if p.Proxy != "" {
		c.Proxy = p.Proxy
	}
	if p.Rate != 0 {
		c.Rate = p.Rate
	}

	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	for k, v := range f.Headers {
		c.Headers[k] = v
	}

	e := f.Export
	if len(e.Formats) > 0 {
		c.Formats = slices.Clone(e.Formats)
	}
	if e.Dir != "" {
		c.OutputDir = e.Dir
	}
	if e.OnlyAvailable {
		c.OnlyAvailable = true
	}
}

// Validate checks the configuration and returns the first rule it violates.
// Method and Formats are normalized to their canonical case.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return ErrNoSource
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.PerHost <= 0 {
		return ErrInvalidPerHost
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ProgressInterval <= 0 {
		return ErrInvalidProgressInterval
	}

	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method != "HEAD" && c.Method != "GET" {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, c.Method)
	}

	formats, err := NormalizeFormats(c.Formats)
	if err != nil {
		return err
	}
	c.Formats = formats

	if c.Rate < 0 {
		return ErrInvalidRate
	}
	if c.Proxy != "" {
		if err := validateProxy(c.Proxy); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeFormats lower-cases, trims and deduplicates format names, splitting
// comma-separated values. "all" expands to every supported format and
// "markdown" is accepted for md.
func NormalizeFormats(in []string) ([]string, error) {
	var out []string
	add := func(f string) {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}

	for _, raw := range in {
		for _, f := range strings.Split(raw, ",") {
			f = strings.ToLower(strings.TrimSpace(f))
			switch {
			case f == "":
			case f == "all":
				for _, s := range SupportedFormats {
					add(s)
				}
			case f == "markdown":
				add(FormatMarkdown)
			case slices.Contains(SupportedFormats, f):
				add(f)
			default:
				return nil, fmt.Errorf("%w: %q (supported: %s)",
					ErrInvalidFormat, f, strings.Join(SupportedFormats, ", "))
			}
		}
	}
	return out, nil
}

func validateProxy(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, u.Scheme)
	}
	if u.Hostname() == "" || u.Port() == "" {
		return fmt.Errorf("%w: missing host or port", ErrInvalidProxy)
	}
	return nil
}

// ExportFileName returns the default file name for a format, for example
// iptv_channels.csv, or iptv_available_channels.csv when only available
// entries are exported.
func ExportFileName(format string, onlyAvailable bool) string {
	base := "iptv_channels"
	if onlyAvailable {
		base = "iptv_available_channels"
	}
	ext := format
	if format == FormatSQLite {
		ext = "db"
	}
	return base + "." + ext
}

// ExportPath returns the path a format is written to.
func (c *Config) ExportPath(format string) string {
	return filepath.Join(c.OutputDir, ExportFileName(format, c.OnlyAvailable))
}
