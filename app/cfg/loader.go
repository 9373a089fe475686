package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP server
	Port string `long:"port" env:"PORT" default:"9000" description:"HTTP server port"`

	// Event source
	BaseURL    string `long:"base-url" env:"EVENTS_BASE_URL" default:"https://events.purdue.edu" description:"Base URL used to resolve relative links and images"`
	StudentURL string `long:"student-url" env:"STUDENT_EVENTS_URL" default:"https://events.purdue.edu/calendar/upcoming?event_types[]=39925425488556" description:"Listing URL for the student audience"`
	FacultyURL string `long:"faculty-url" env:"FACULTY_EVENTS_URL" default:"https://events.purdue.edu/calendar/week?card_size=small&order=date&experience=&event_types%5B%5D=39925426947703" description:"Listing URL for the faculty audience"`
	UserAgent  string `long:"user-agent" env:"USER_AGENT" default:"BoilerEvents/1.0" description:"User agent string for HTTP requests"`

	// Pipeline tuning
	BatchSize        int `long:"batch-size" env:"BATCH_SIZE" default:"10" description:"Maximum number of events sent to the model per request"`
	ListingTimeout   int `long:"listing-timeout" env:"LISTING_TIMEOUT" default:"30" description:"Listing page fetch timeout in seconds"`
	DetailTimeout    int `long:"detail-timeout" env:"DETAIL_TIMEOUT" default:"15" description:"Per-event detail page fetch timeout in seconds"`
	NormalizeTimeout int `long:"normalize-timeout" env:"NORMALIZE_TIMEOUT" default:"60" description:"Model call timeout in seconds"`

	// Cache
	RedisAddr       string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address (host:port), empty disables Redis and uses in-process cache"`
	CacheTTLSeconds int    `long:"cache-ttl" env:"CACHE_TTL" default:"3600" description:"Result cache TTL in seconds"`

	// OpenAI
	OpenAIAPIKey string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key (required)" required:"true"`
	OpenAIModel  string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"Model used for event normalization"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:             raw.Port,
		BaseURL:          raw.BaseURL,
		StudentURL:       raw.StudentURL,
		FacultyURL:       raw.FacultyURL,
		UserAgent:        raw.UserAgent,
		BatchSize:        raw.BatchSize,
		ListingTimeout:   raw.ListingTimeout,
		DetailTimeout:    raw.DetailTimeout,
		NormalizeTimeout: raw.NormalizeTimeout,
		RedisAddr:        raw.RedisAddr,
		CacheTTLSeconds:  raw.CacheTTLSeconds,
		OpenAIAPIKey:     raw.OpenAIAPIKey,
		OpenAIModel:      raw.OpenAIModel,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.CacheTTLSeconds <= 0 {
		return nil, fmt.Errorf("cache-ttl must be positive, got %d", cfg.CacheTTLSeconds)
	}
	if cfg.ListingTimeout <= 0 || cfg.DetailTimeout <= 0 || cfg.NormalizeTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be positive, got listing=%d detail=%d normalize=%d",
			cfg.ListingTimeout, cfg.DetailTimeout, cfg.NormalizeTimeout)
	}

	return cfg, nil
}
