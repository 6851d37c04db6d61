package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/common"
	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/dns"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvNamespace prefixes every environment variable read by the CLI
const EnvNamespace = "DOMAIN_CHECKER"

// Config holds all application configuration. Values come from, in
// increasing precedence: built-in defaults, the YAML settings file,
// environment variables and command line flags.
type Config struct {
	ConfigFile string `long:"config" env:"CONFIG" description:"YAML settings file" yaml:"-"`

	// Input/Output
	InputFile     string   `short:"i" long:"input" env:"INPUT" description:"Input file with domains to check, - for stdin" yaml:"input"`
	Domains       []string `short:"d" long:"domain" description:"Domain to check, may be repeated" yaml:"domains"`
	OutputFile    string   `short:"o" long:"output" env:"OUTPUT" description:"CSV output file" yaml:"output"`
	JSONLFile     string   `long:"jsonl" env:"JSONL" description:"JSON lines output file" yaml:"jsonl"`
	AvailableOut  string   `long:"available-out" env:"AVAILABLE_OUT" description:"Write available domains to this file, one per line" yaml:"available_out"`
	RegisteredOut string   `long:"registered-out" env:"REGISTERED_OUT" description:"Write registered domains to this file, one per line" yaml:"registered_out"`

	// Scheduling
	BatchSize         int `long:"batch-size" env:"BATCH_SIZE" description:"Domains per batch" yaml:"batch_size"`
	ConcurrentBatches int `long:"concurrent-batches" env:"CONCURRENT_BATCHES" description:"Batches run concurrently in one wave" yaml:"concurrent_batches"`
	Timeout           int `long:"timeout" env:"TIMEOUT" description:"Per-lookup timeout in milliseconds" yaml:"timeout"`

	// Resolvers
	Resolvers       []string `long:"resolver" env:"RESOLVERS" env-delim:"," description:"DNS-over-HTTPS endpoint, repeat for each resolver" yaml:"resolvers"`
	ResolverFormat  string   `long:"resolver-format" env:"RESOLVER_FORMAT" choice:"json" choice:"wire" description:"DNS-over-HTTPS flavour" yaml:"resolver_format"`
	QueryType       string   `long:"query-type" env:"QUERY_TYPE" description:"DNS record type to query" yaml:"query_type"`
	StrictTLD       bool     `long:"strict-tld" env:"STRICT_TLD" description:"Only accept ICANN top-level domains" yaml:"strict_tld"`
	MaxResponseSize int64    `long:"max-response-size" env:"MAX_RESPONSE_SIZE" description:"Maximum resolver response size in bytes" yaml:"max_response_size"`
	UserAgent       string   `long:"user-agent" env:"USER_AGENT" description:"HTTP User-Agent header" yaml:"user_agent"`

	// Observability
	MetricsAddr string `long:"metrics-addr" env:"METRICS_ADDR" description:"Expose Prometheus metrics on this address, e.g. :2112" yaml:"metrics_addr"`
	LogFile     string `long:"log-file" env:"LOG_FILE" description:"Write JSON logs to this file instead of stderr" yaml:"log_file"`
	Debug       bool   `long:"debug" env:"DEBUG" description:"Enable debug logging" yaml:"debug"`

	// UI
	Dashboard  bool `long:"dashboard" env:"DASHBOARD" description:"Show interactive TUI dashboard" yaml:"dashboard"`
	NoProgress bool `long:"no-progress" env:"NO_PROGRESS" description:"Disable the progress bar" yaml:"no_progress"`
	Top        int  `long:"top" env:"TOP" description:"Rank this many available domains after the run, 0 to disable" yaml:"top"`

	Version bool `short:"v" long:"version" description:"Print version and exit" yaml:"-"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	settings := entity.DefaultSettings()
	return &Config{
		OutputFile:        "results.csv",
		BatchSize:         settings.BatchSize,
		ConcurrentBatches: settings.ConcurrentBatches,
		Timeout:           int(settings.Timeout / time.Millisecond),
		ResolverFormat:    string(dns.FormatJSON),
		QueryType:         dns.DefaultQueryType,
		MaxResponseSize:   1 << 20,
		UserAgent:         common.PV.UserAgent(),
		Top:               10,
	}
}

// ParseFlags loads .env, parses the command line and validates the result
func ParseFlags() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg, err := Load(os.Args[1:])
	if err != nil {
		if flags.WroteHelp(err) {
			// Help has been printed by the library, exit cleanly
			os.Exit(0)
		}
		return nil, err
	}

	if cfg.Version {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads environment files that exist, without overriding
// variables already set
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses args on top of the defaults and the optional settings file
func Load(args []string) (*Config, error) {
	configFile, err := findConfigFile(args)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if configFile != "" {
		if err := cfg.loadYAML(configFile); err != nil {
			return nil, err
		}
	}

	parser := newParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newParser(data any, options flags.Options) *flags.Parser {
	parser := flags.NewNamedParser(common.ProgramName, options)
	parser.Usage = "[OPTIONS]"
	parser.EnvNamespace = EnvNamespace
	parser.AddGroup("Application Options", "", data)
	return parser
}

// findConfigFile extracts --config without failing on the other flags
func findConfigFile(args []string) (string, error) {
	var opts struct {
		ConfigFile string `long:"config" env:"CONFIG"`
	}
	parser := newParser(&opts, flags.IgnoreUnknown)
	if _, err := parser.ParseArgs(args); err != nil {
		return "", err
	}
	return opts.ConfigFile, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse settings file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

// Settings returns the scheduling settings
func (c *Config) Settings() entity.Settings {
	return entity.Settings{
		BatchSize:         c.BatchSize,
		ConcurrentBatches: c.ConcurrentBatches,
		Timeout:           time.Duration(c.Timeout) * time.Millisecond,
	}
}

// ResolverConfigs returns the configured endpoints, or the defaults
func (c *Config) ResolverConfigs() []dns.Config {
	format := dns.Format(c.ResolverFormat)
	if len(c.Resolvers) == 0 {
		configs := dns.DefaultConfigs(format)
		for i := range configs {
			configs[i].QueryType = c.QueryType
		}
		return configs
	}

	configs := make([]dns.Config, 0, len(c.Resolvers))
	for _, u := range c.Resolvers {
		configs = append(configs, dns.Config{
			URL:       strings.TrimSpace(u),
			Format:    format,
			QueryType: c.QueryType,
		})
	}
	return configs
}

// ReadsStdin reports whether domains are read from standard input
func (c *Config) ReadsStdin() bool {
	return c.InputFile == "-" || (c.InputFile == "" && len(c.Domains) == 0)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Settings().Validate(); err != nil {
		return err
	}

	switch dns.Format(c.ResolverFormat) {
	case dns.FormatJSON, dns.FormatWire:
	default:
		return fmt.Errorf("resolver format must be json or wire, got %q", c.ResolverFormat)
	}

	if n := len(c.Resolvers); n > 0 && n < dns.MinResolvers {
		return fmt.Errorf("at least %d resolvers are required, got %d", dns.MinResolvers, n)
	}

	if c.MaxResponseSize <= 0 {
		return fmt.Errorf("max response size must be > 0, got %d", c.MaxResponseSize)
	}

	if c.Top < 0 {
		return fmt.Errorf("top must be >= 0, got %d", c.Top)
	}

	if c.Dashboard && c.ReadsStdin() {
		return errors.New("the dashboard needs the terminal, read domains with -i or -d instead of stdin")
	}

	return nil
}
