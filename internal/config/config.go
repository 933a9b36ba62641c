package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Forecast ForecastConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
	Drive    DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
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

// ImportConfig bounds the ingestion pipeline: upload size, per-day row sanity
// limits and the minimum sales volume a product needs before it is eligible
// for worst-margin ranking.
type ImportConfig struct {
	UploadDir        string
	MaxUploadBytes   int64
	MaxChecksPerDay  int
	MinProductVolume int
	WorkerCount      int
}

type ForecastConfig struct {
	MinSamples      int
	UsableSamples   int
	CleanupEveryNth int
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	StatusTTLSecs int
}

// ArchiveConfig points at the S3-compatible bucket where raw uploaded
// spreadsheets are retained after a successful import.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
	DownloadDir     string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_LOG_LEVEL", "info")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "poslytics")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("IMPORT_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("IMPORT_MAX_UPLOAD_BYTES", 16*1024*1024)
		viper.SetDefault("IMPORT_MAX_CHECKS_PER_DAY", 10000)
		viper.SetDefault("IMPORT_MIN_PRODUCT_VOLUME", 5)
		viper.SetDefault("IMPORT_WORKER_COUNT", 4)
		viper.SetDefault("FORECAST_MIN_SAMPLES", 5)
		viper.SetDefault("FORECAST_USABLE_SAMPLES", 10)
		viper.SetDefault("FORECAST_CLEANUP_EVERY_NTH", 10)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_STATUS_TTL_SECONDS", 3600)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "zreport-archive")
		viper.SetDefault("ARCHIVE_USE_SSL", true)
		viper.SetDefault("DRIVE_CREDENTIALS_FILE", "")
		viper.SetDefault("DRIVE_FOLDER_ID", "")
		viper.SetDefault("DRIVE_DOWNLOAD_DIR", "./data/drive")

		viper.AutomaticEnv()

		ensureDir(viper.GetString("IMPORT_UPLOAD_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				LogLevel:       viper.GetString("SERVER_LOG_LEVEL"),
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
			Import: ImportConfig{
				UploadDir:        viper.GetString("IMPORT_UPLOAD_DIR"),
				MaxUploadBytes:   viper.GetInt64("IMPORT_MAX_UPLOAD_BYTES"),
				MaxChecksPerDay:  viper.GetInt("IMPORT_MAX_CHECKS_PER_DAY"),
				MinProductVolume: viper.GetInt("IMPORT_MIN_PRODUCT_VOLUME"),
				WorkerCount:      viper.GetInt("IMPORT_WORKER_COUNT"),
			},
			Forecast: ForecastConfig{
				MinSamples:      viper.GetInt("FORECAST_MIN_SAMPLES"),
				UsableSamples:   viper.GetInt("FORECAST_USABLE_SAMPLES"),
				CleanupEveryNth: viper.GetInt("FORECAST_CLEANUP_EVERY_NTH"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				StatusTTLSecs: viper.GetInt("CACHE_STATUS_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsFile: viper.GetString("DRIVE_CREDENTIALS_FILE"),
				FolderID:        viper.GetString("DRIVE_FOLDER_ID"),
				DownloadDir:     viper.GetString("DRIVE_DOWNLOAD_DIR"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
