package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Engine EngineConfig `mapstructure:"engine"`
	OCR    OCRConfig    `mapstructure:"ocr"`
	Export ExportConfig `mapstructure:"export"`
	Watch  WatchConfig  `mapstructure:"watch"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	BodyLimitMB  int           `mapstructure:"body_limit_mb"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	AllowOrigins string        `mapstructure:"allow_origins"`
	Debug        bool          `mapstructure:"debug"`
}

// EngineConfig holds extraction tuning
type EngineConfig struct {
	MaxFileSizeMB   int     `mapstructure:"max_file_size_mb"`
	DefaultMode     string  `mapstructure:"default_mode"`
	RowTolerancePx  float64 `mapstructure:"row_tolerance_px"`
	SimilarityFloor float64 `mapstructure:"similarity_floor"`
	MaxQuantity     int     `mapstructure:"max_quantity"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string `mapstructure:"engine"` // tesseract, gosseract or none
	Tesseract     string `mapstructure:"tesseract"`
	Pdftoppm      string `mapstructure:"pdftoppm"`
	Lang          string `mapstructure:"lang"`
	TessdataDir   string `mapstructure:"tessdata_dir"`
	PSM           int    `mapstructure:"psm"`
	DPI           int    `mapstructure:"dpi"`
	MaxPages      int    `mapstructure:"max_pages"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
}

// ExportConfig holds spreadsheet output settings
type ExportConfig struct {
	SheetName      string `mapstructure:"sheet_name"`
	FilenamePrefix string `mapstructure:"filename_prefix"`
}

// WatchConfig holds the inbox watcher settings
type WatchConfig struct {
	Inbox          string        `mapstructure:"inbox"`
	Outbox         string        `mapstructure:"outbox"`
	Debounce       time.Duration `mapstructure:"debounce"`
	Workers        int           `mapstructure:"workers"`
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
}

// MaxFileSize returns the per-file ceiling in bytes.
func (e EngineConfig) MaxFileSize() int {
	return e.MaxFileSizeMB << 20
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         getEnv("AGILIZA_SERVER_ADDR", ":8000"),
			BodyLimitMB:  getEnvAsInt("AGILIZA_SERVER_BODY_LIMIT_MB", 200),
			ReadTimeout:  getEnvAsDuration("AGILIZA_SERVER_READ_TIMEOUT", 60*time.Second),
			WriteTimeout: getEnvAsDuration("AGILIZA_SERVER_WRITE_TIMEOUT", 120*time.Second),
			AllowOrigins: getEnv("AGILIZA_SERVER_ALLOW_ORIGINS", "*"),
			Debug:        getEnvAsBool("AGILIZA_DEBUG", false),
		},
		Engine: EngineConfig{
			MaxFileSizeMB:   getEnvAsInt("AGILIZA_ENGINE_MAX_FILE_SIZE_MB", 50),
			DefaultMode:     getEnv("AGILIZA_ENGINE_DEFAULT_MODE", "winthor"),
			RowTolerancePx:  getEnvAsFloat64("AGILIZA_ENGINE_ROW_TOLERANCE_PX", 25),
			SimilarityFloor: getEnvAsFloat64("AGILIZA_ENGINE_SIMILARITY_FLOOR", 0.6),
			MaxQuantity:     getEnvAsInt("AGILIZA_ENGINE_MAX_QUANTITY", 999999),
		},
		OCR: OCRConfig{
			Engine:        getEnv("AGILIZA_OCR_ENGINE", "tesseract"),
			Tesseract:     getEnv("AGILIZA_OCR_TESSERACT", "tesseract"),
			Pdftoppm:      getEnv("AGILIZA_OCR_PDFTOPPM", "pdftoppm"),
			Lang:          getEnv("AGILIZA_OCR_LANG", "por"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PSM:           getEnvAsInt("AGILIZA_OCR_PSM", 6),
			DPI:           getEnvAsInt("AGILIZA_OCR_DPI", 300),
			MaxPages:      getEnvAsInt("AGILIZA_OCR_MAX_PAGES", 20),
			MaxConcurrent: getEnvAsInt("AGILIZA_OCR_MAX_CONCURRENT", 1),
		},
		Export: ExportConfig{
			SheetName:      getEnv("AGILIZA_EXPORT_SHEET_NAME", "Pedido"),
			FilenamePrefix: getEnv("AGILIZA_EXPORT_FILENAME_PREFIX", "AgilizaConverter"),
		},
		Watch: WatchConfig{
			Inbox:          getEnv("AGILIZA_WATCH_INBOX", "./inbox"),
			Outbox:         getEnv("AGILIZA_WATCH_OUTBOX", "./outbox"),
			Debounce:       getEnvAsDuration("AGILIZA_WATCH_DEBOUNCE", 500*time.Millisecond),
			Workers:        getEnvAsInt("AGILIZA_WATCH_WORKERS", 2),
			ProcessTimeout: getEnvAsDuration("AGILIZA_WATCH_PROCESS_TIMEOUT", 2*time.Minute),
		},
	}
}

// Load layers defaults, an optional YAML file and AGILIZA_* environment
// variables (AGILIZA_ENGINE_MAX_FILE_SIZE_MB, AGILIZA_OCR_ENGINE, ...).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, NewAppError("CONFIG_ERROR", "failed to read config", err)
			}
		}
	}

	v.SetEnvPrefix("AGILIZA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "failed to unmarshal config", err)
	}
	if cfg.OCR.TessdataDir == "" {
		cfg.OCR.TessdataDir = os.Getenv("TESSDATA_PREFIX")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := LoadConfig()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.body_limit_mb", d.Server.BodyLimitMB)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.allow_origins", d.Server.AllowOrigins)
	v.SetDefault("server.debug", d.Server.Debug)

	v.SetDefault("engine.max_file_size_mb", d.Engine.MaxFileSizeMB)
	v.SetDefault("engine.default_mode", d.Engine.DefaultMode)
	v.SetDefault("engine.row_tolerance_px", d.Engine.RowTolerancePx)
	v.SetDefault("engine.similarity_floor", d.Engine.SimilarityFloor)
	v.SetDefault("engine.max_quantity", d.Engine.MaxQuantity)

	v.SetDefault("ocr.engine", d.OCR.Engine)
	v.SetDefault("ocr.tesseract", d.OCR.Tesseract)
	v.SetDefault("ocr.pdftoppm", d.OCR.Pdftoppm)
	v.SetDefault("ocr.lang", d.OCR.Lang)
	v.SetDefault("ocr.tessdata_dir", d.OCR.TessdataDir)
	v.SetDefault("ocr.psm", d.OCR.PSM)
	v.SetDefault("ocr.dpi", d.OCR.DPI)
	v.SetDefault("ocr.max_pages", d.OCR.MaxPages)
	v.SetDefault("ocr.max_concurrent", d.OCR.MaxConcurrent)

	v.SetDefault("export.sheet_name", d.Export.SheetName)
	v.SetDefault("export.filename_prefix", d.Export.FilenamePrefix)

	v.SetDefault("watch.inbox", d.Watch.Inbox)
	v.SetDefault("watch.outbox", d.Watch.Outbox)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.workers", d.Watch.Workers)
	v.SetDefault("watch.process_timeout", d.Watch.ProcessTimeout)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "server.addr is required", ErrInvalidInput)
	}
	if c.Engine.MaxFileSizeMB <= 0 {
		return NewAppError("CONFIG_ERROR", "engine.max_file_size_mb must be positive", ErrInvalidInput)
	}
	if c.Engine.SimilarityFloor <= 0 || c.Engine.SimilarityFloor > 1 {
		return NewAppError("CONFIG_ERROR", "engine.similarity_floor must be in (0,1]", ErrInvalidInput)
	}
	if c.Engine.RowTolerancePx <= 0 {
		return NewAppError("CONFIG_ERROR", "engine.row_tolerance_px must be positive", ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case "tesseract", "gosseract", "none":
	default:
		return NewAppError("CONFIG_ERROR", "ocr.engine must be tesseract, gosseract or none", ErrInvalidInput)
	}
	if c.OCR.MaxConcurrent <= 0 {
		return NewAppError("CONFIG_ERROR", "ocr.max_concurrent must be positive", ErrInvalidInput)
	}
	return nil
}
