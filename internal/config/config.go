// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Pipeline PipelineConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PipelineConfig parameterizes a benchmark run: where inputs live, which
// characters are stripped when building canonical keys, and which region
// labels get their own demand subtotal column.
type PipelineConfig struct {
	InputDir        string
	CatalogPath     string
	IntermediateDir string
	OutputDir       string

	// StripChars are removed from part numbers before matching.
	StripChars string
	// Regions is the ordered list of region labels that receive subtotals.
	// Demand tagged with any other label still counts toward SKU totals.
	Regions []string
	// SKUColumn is the header of the internal SKU column in the wide catalog.
	SKUColumn string

	WorkerCount          int
	PersistIntermediates bool
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	SummaryTTLSeconds int
}

// ArchiveConfig points at the S3-compatible bucket holding input snapshots.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "chassisbench")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("PIPELINE_INPUT_DIR", "./data/input/demand")
		viper.SetDefault("PIPELINE_CATALOG_PATH", "./data/input/cross_catalog.csv")
		viper.SetDefault("PIPELINE_INTERMEDIATE_DIR", "./data/intermediate")
		viper.SetDefault("PIPELINE_OUTPUT_DIR", "./data/output")
		viper.SetDefault("PIPELINE_STRIP_CHARS", "-. /")
		viper.SetDefault("PIPELINE_REGIONS", []string{
			"North America", "Mexico", "Puerto Rico", "Europe",
			"Africa", "Central America", "South America", "Middle East",
		})
		viper.SetDefault("PIPELINE_SKU_COLUMN", "SusCatalog")
		viper.SetDefault("PIPELINE_WORKER_COUNT", 4)
		viper.SetDefault("PIPELINE_PERSIST_INTERMEDIATES", true)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SUMMARY_TTL_SECONDS", 60)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "")
		viper.SetDefault("ARCHIVE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure working directories exist
		ensureDir(viper.GetString("PIPELINE_INTERMEDIATE_DIR"))
		ensureDir(viper.GetString("PIPELINE_OUTPUT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Pipeline: PipelineConfig{
				InputDir:             viper.GetString("PIPELINE_INPUT_DIR"),
				CatalogPath:          viper.GetString("PIPELINE_CATALOG_PATH"),
				IntermediateDir:      viper.GetString("PIPELINE_INTERMEDIATE_DIR"),
				OutputDir:            viper.GetString("PIPELINE_OUTPUT_DIR"),
				StripChars:           viper.GetString("PIPELINE_STRIP_CHARS"),
				Regions:              splitRegions(viper.GetStringSlice("PIPELINE_REGIONS")),
				SKUColumn:            viper.GetString("PIPELINE_SKU_COLUMN"),
				WorkerCount:          viper.GetInt("PIPELINE_WORKER_COUNT"),
				PersistIntermediates: viper.GetBool("PIPELINE_PERSIST_INTERMEDIATES"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				SummaryTTLSeconds: viper.GetInt("CACHE_SUMMARY_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
		}
	})

	return instance
}

// Validate checks the run parameters the pipeline refuses to start without.
func (c *PipelineConfig) Validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("region list is empty: at least one region label is required")
	}
	seen := make(map[string]struct{}, len(c.Regions))
	for _, r := range c.Regions {
		label := strings.TrimSpace(r)
		if label == "" {
			return fmt.Errorf("region list contains a blank label")
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("region list contains duplicate label %q", label)
		}
		seen[label] = struct{}{}
	}
	return nil
}

// splitRegions tolerates a single comma-separated env value as well as a list.
func splitRegions(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
