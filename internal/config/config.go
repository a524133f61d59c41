package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Browser session configuration
	Browser BrowserConfig `mapstructure:"browser"`

	// Persistent store configuration
	Store StoreConfig `mapstructure:"store"`

	// Image download configuration
	Images ImagesConfig `mapstructure:"images"`

	// Crawler configuration
	Crawler CrawlerConfig `mapstructure:"crawler"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// BrowserConfig holds browser-session configuration
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless"`
	UserAgent       string        `mapstructure:"user_agent"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout"`
	ElementWait     time.Duration `mapstructure:"element_wait"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
	Cookies         []Cookie      `mapstructure:"cookies"`
}

// Cookie is an opaque cookie passed through to the browser at startup.
// The defaults dismiss the site's consent and promo overlays.
type Cookie struct {
	Name   string `mapstructure:"name"`
	Value  string `mapstructure:"value"`
	Domain string `mapstructure:"domain"`
	Path   string `mapstructure:"path"`
	Secure bool   `mapstructure:"secure"`
}

// StoreConfig holds persistent store configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ImagesConfig holds image download configuration
type ImagesConfig struct {
	Dir             string        `mapstructure:"dir"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
}

// CrawlerConfig holds crawler-specific configuration
type CrawlerConfig struct {
	MainPageURL       string `mapstructure:"main_page_url"`
	SourcesFile       string `mapstructure:"sources_file"`
	RequestsPerSecond int    `mapstructure:"requests_per_second"`
	FollowRobotsTxt   bool   `mapstructure:"follow_robots_txt"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.rkscraper")
	}

	setDefaults(v)

	v.SetEnvPrefix("RKSCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is not an error, defaults and env still apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Browser defaults
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0")
	v.SetDefault("browser.page_load_timeout", "30s")
	v.SetDefault("browser.element_wait", "7s")
	v.SetDefault("browser.settle_delay", "3s")
	v.SetDefault("browser.cookies", []map[string]any{
		{
			"name":   "euconsent-v2",
			"value":  "CPu_hvvPu_hvvExAAAPLDNCgAAAAAAAAAAAAJiwAATFgAAAA.YAAAAAAAAAAA",
			"domain": ".www.rynek-kolejowy.pl",
			"path":   "/",
			"secure": true,
		},
		{
			"name":   "_popup",
			"value":  "0",
			"domain": ".www.rynek-kolejowy.pl",
			"path":   "/",
		},
	})

	// Store defaults
	v.SetDefault("store.path", "messages.db")

	// Images defaults
	v.SetDefault("images.dir", "images")
	v.SetDefault("images.download_timeout", "300s")

	// Crawler defaults
	v.SetDefault("crawler.main_page_url", "https://www.rynek-kolejowy.pl")
	v.SetDefault("crawler.sources_file", "sources.yml")
	v.SetDefault("crawler.requests_per_second", 1)
	v.SetDefault("crawler.follow_robots_txt", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Browser.PageLoadTimeout <= 0 {
		return fmt.Errorf("browser.page_load_timeout must be positive")
	}
	if c.Browser.ElementWait <= 0 {
		return fmt.Errorf("browser.element_wait must be positive")
	}
	if c.Browser.SettleDelay < 0 {
		return fmt.Errorf("browser.settle_delay must not be negative")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must be set")
	}
	if c.Images.Dir == "" {
		return fmt.Errorf("images.dir must be set")
	}
	if c.Images.DownloadTimeout <= 0 {
		return fmt.Errorf("images.download_timeout must be positive")
	}
	if c.Crawler.RequestsPerSecond <= 0 {
		return fmt.Errorf("crawler.requests_per_second must be positive")
	}
	return nil
}
