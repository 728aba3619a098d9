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
	// Reddit API credentials
	RedditClientID     string `long:"reddit-client-id" env:"REDDIT_CLIENT_ID" description:"Reddit API client ID (required)" required:"true"`
	RedditClientSecret string `long:"reddit-client-secret" env:"REDDIT_CLIENT_SECRET" description:"Reddit API client secret (required)" required:"true"`
	UserAgent          string `long:"user-agent" env:"REDDIT_USER_AGENT" default:"golang:reddit-image-dedup:v1.0" description:"User agent string for Reddit API and image downloads"`

	// Application configuration
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	HashSize       int    `long:"hash-size" env:"HASH_SIZE" default:"16" description:"Perceptual hash resolution in bits per edge (16 = 256-bit hashes)"`
	MatchThreshold int    `long:"match-threshold" env:"MATCH_THRESHOLD" default:"15" description:"Maximum Hamming distance still counted as a duplicate"`
	PostLimit      int    `long:"post-limit" env:"POST_LIMIT" default:"50" description:"Number of hot posts scanned per subreddit"`
	FetchTimeout   int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Image download timeout in seconds"`
	ScanWorkers    int    `long:"scan-workers" env:"SCAN_WORKERS" default:"4" description:"Concurrent image downloads per subreddit scan"`

	// Application metadata
	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

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
		RedditClientID:     raw.RedditClientID,
		RedditClientSecret: raw.RedditClientSecret,
		UserAgent:          raw.UserAgent,
		Port:               raw.Port,
		HashSize:           raw.HashSize,
		MatchThreshold:     raw.MatchThreshold,
		PostLimit:          raw.PostLimit,
		FetchTimeout:       raw.FetchTimeout,
		ScanWorkers:        raw.ScanWorkers,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	// goimagehash packs hash bits into 64-bit words, so the squared hash
	// size has to be a multiple of 64.
	if (cfg.HashSize*cfg.HashSize)%64 != 0 {
		return nil, fmt.Errorf("invalid hash size %d: squared size must be a multiple of 64", cfg.HashSize)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
