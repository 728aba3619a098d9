package cfg

// Cfg is the resolved application configuration.
type Cfg struct {
	// Reddit API credentials
	RedditClientID     string
	RedditClientSecret string
	UserAgent          string

	// Application configuration
	Port           string
	HashSize       int
	MatchThreshold int
	PostLimit      int
	FetchTimeout   int
	ScanWorkers    int

	// Application metadata
	Debug   bool
	Version string
}
