package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Request  RequestConfig  `yaml:"request"`
	Log      LogConfig      `yaml:"log"`
	DB       DBConfig       `yaml:"db"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
	Wikidata WikidataConfig `yaml:"wikidata"`
	Browse   BrowseConfig   `yaml:"browse"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Timeout       Duration `yaml:"timeout"`
	ScrapeTimeout Duration `yaml:"scrape_timeout"`
	UserAgent     string   `yaml:"user_agent"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig holds settings for the on-disk response cache.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// WikidataConfig holds endpoints for the Wikidata APIs.
type WikidataConfig struct {
	APIEndpoint   string `yaml:"api_endpoint"`
	QueryEndpoint string `yaml:"query_endpoint"`
}

// BrowseConfig holds settings for the artwork browse pages.
type BrowseConfig struct {
	PageSize    int `yaml:"page_size"`
	FacetLimit  int `yaml:"facet_limit"`
	ThumbWidth  int `yaml:"thumb_width"`
	ThumbHeight int `yaml:"thumb_height"`

	// FindMoreProps maps property IDs to display names. These are the
	// dimensions a curator can pin while browsing.
	FindMoreProps map[string]string `yaml:"find_more_props"`

	// IsaList is the allow-list of artwork types (wdt:P31 values).
	IsaList []string `yaml:"isa_list"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Timeout:       Duration(30 * time.Second),
			ScrapeTimeout: Duration(3 * time.Second),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/depicts.db",
		},
		Cache: CacheConfig{
			Dir: "./cache",
		},
		Server: ServerConfig{
			Address: "localhost:5331",
		},
		Wikidata: WikidataConfig{
			APIEndpoint:   "https://www.wikidata.org/w/api.php",
			QueryEndpoint: "https://query.wikidata.org/bigdata/namespace/wdq/sparql",
		},
		Browse: BrowseConfig{
			PageSize:    45,
			FacetLimit:  15,
			ThumbWidth:  300,
			ThumbHeight: 400,
			FindMoreProps: map[string]string{
				"P135": "movement",
				"P136": "genre",
				"P170": "artist",
				"P195": "collection",
				"P276": "location",
				"P495": "country of origin",
				"P127": "owned by",
				"P179": "part of the series",
			},
			IsaList: []string{
				"Q3305213",  // painting
				"Q18761202", // watercolor painting
				"Q93184",    // drawing
				"Q11060274", // print
			},
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		// Env fallbacks, never written back to disk
		if cfg.DB.Path == "" {
			if p := os.Getenv("DEPICTS_DB_PATH"); p != "" {
				cfg.DB.Path = p
			}
		}
		if cfg.Cache.Dir == "" {
			if d := os.Getenv("DEPICTS_CACHE_DIR"); d != "" {
				cfg.Cache.Dir = d
			}
		}

		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Depicts Configuration
# ---------------------
# Supported Duration units: ns, us, ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
