package cfg

type Cfg struct {
	// HTTP server
	Port string

	// Event source
	BaseURL    string
	StudentURL string
	FacultyURL string
	UserAgent  string

	// Pipeline tuning
	BatchSize        int
	ListingTimeout   int
	DetailTimeout    int
	NormalizeTimeout int

	// Cache
	RedisAddr       string
	CacheTTLSeconds int

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Application metadata
	Debug   bool
	Version string
}
