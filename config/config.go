package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SiteTaylorMorrison = "taylor_morrison"
	SiteDreesHomes     = "drees_homes"
)

type Config struct {
	Browser    BrowserConfig
	Storage    StorageConfig
	S3         S3Config
	ActiveSite string
	SitesDir   string
	LogFile    string
	Sites      map[string]*SiteConfig
}

type BrowserConfig struct {
	Engine       string
	Headless     bool
	SlowMoMS     int
	Install      bool
	NavTimeoutMS int
}

type StorageConfig struct {
	DBPath      string
	DatabaseURL string
	CSVPath     string
}

// S3Config holds configuration for S3-compatible storage
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for DO Spaces, R2, etc.
	AccessKeyID     string
	SecretAccessKey string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type SiteConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Handler   string `yaml:"handler"`
	StartURL  string `yaml:"start_url"`
	State     string `yaml:"state"`
	Community string `yaml:"community"`
}

// DefaultSites returns the built-in builder sites. Taylor Morrison is the
// active one unless ACTIVE_SITE says otherwise.
func DefaultSites() map[string]*SiteConfig {
	return map[string]*SiteConfig{
		SiteTaylorMorrison: {
			ID:       SiteTaylorMorrison,
			Name:     "Taylor Morrison",
			Handler:  SiteTaylorMorrison,
			StartURL: "https://www.taylormorrison.com",
			State:    "Texas",
		},
		SiteDreesHomes: {
			ID:        SiteDreesHomes,
			Name:      "Drees Homes",
			Handler:   SiteDreesHomes,
			StartURL:  "https://www.dreeshomes.com/custom-homes/austin/community/clearwater_ranch/clearwater_ranch/",
			Community: "Clearwater Ranch",
		},
	}
}

// Default is the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Engine:       "firefox",
			SlowMoMS:     100,
			NavTimeoutMS: 60000,
		},
		Storage: StorageConfig{
			DBPath: "housetracker.db",
		},
		ActiveSite: SiteTaylorMorrison,
		SitesDir:   "config/sites",
		LogFile:    "housetracker.log",
		Sites:      DefaultSites(),
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	def := Default()
	cfg := &Config{
		Browser: BrowserConfig{
			Engine:       getEnv("BROWSER_ENGINE", def.Browser.Engine),
			Headless:     getEnvBool("HEADLESS", def.Browser.Headless),
			SlowMoMS:     getEnvInt("SLOW_MO_MS", def.Browser.SlowMoMS),
			Install:      getEnvBool("BROWSER_INSTALL", def.Browser.Install),
			NavTimeoutMS: getEnvInt("NAV_TIMEOUT_MS", def.Browser.NavTimeoutMS),
		},
		Storage: StorageConfig{
			DBPath:      getEnv("DB_PATH", def.Storage.DBPath),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			CSVPath:     os.Getenv("CSV_PATH"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		ActiveSite: getEnv("ACTIVE_SITE", def.ActiveSite),
		SitesDir:   getEnv("SITES_DIR", def.SitesDir),
		LogFile:    getEnv("LOG_FILE", def.LogFile),
		Sites:      def.Sites,
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	if _, err := cfg.Site(cfg.ActiveSite); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Site returns the site config for id.
func (c *Config) Site(id string) (*SiteConfig, error) {
	site, ok := c.Sites[id]
	if !ok {
		return nil, fmt.Errorf("unknown site %q (known: %v)", id, c.SiteIDs())
	}
	return site, nil
}

func (c *Config) SiteIDs() []string {
	ids := make([]string, 0, len(c.Sites))
	for id := range c.Sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// loadSiteConfigs overlays YAML site definitions found in SitesDir on top of
// the built-in sites. A missing directory is not an error.
func (c *Config) loadSiteConfigs() error {
	entries, err := os.ReadDir(c.SitesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(c.SitesDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if site.ID == "" {
			return fmt.Errorf("parse %s: missing id", path)
		}
		if site.Handler == "" {
			site.Handler = site.ID
		}

		c.Sites[site.ID] = &site
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
