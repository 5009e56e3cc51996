package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config конфигурация сервера
type Config struct {
	// Сервер
	Port string `json:"port"`

	// Внешние сервисы
	ParseAPIBaseURL  string `json:"parse_api_base_url"`
	FilingAPIBaseURL string `json:"filing_api_base_url"`

	// Классификация заявителя
	// Включает устаревший двухвызовный режим: /parse-address без имени,
	// затем /parse-name отдельно для физических лиц
	ClassifyNameSeparately bool `json:"classify_name_separately"`

	// Отправка
	SubmitRatePerSecond float64       `json:"submit_rate_per_second"`
	MaxRetries          int           `json:"max_retries"`
	FetchTokenPerItem   bool          `json:"fetch_token_per_item"`
	SubmitTimeout       time.Duration `json:"submit_timeout"`

	// Журнал отправок
	JournalPath string `json:"journal_path"`

	// Логирование
	LogLevel string `json:"log_level"`

	// Ограничение размера загружаемых файлов, байт
	MaxUploadSize int64 `json:"max_upload_size"`
}

// configJSON промежуточная структура для файла конфигурации,
// длительности хранятся строками
type configJSON struct {
	Port                   string  `json:"port"`
	ParseAPIBaseURL        string  `json:"parse_api_base_url"`
	FilingAPIBaseURL       string  `json:"filing_api_base_url"`
	ClassifyNameSeparately bool    `json:"classify_name_separately"`
	SubmitRatePerSecond    float64 `json:"submit_rate_per_second"`
	MaxRetries             int     `json:"max_retries"`
	FetchTokenPerItem      bool    `json:"fetch_token_per_item"`
	SubmitTimeout          string  `json:"submit_timeout"`
	JournalPath            string  `json:"journal_path"`
	LogLevel               string  `json:"log_level"`
	MaxUploadSize          int64   `json:"max_upload_size"`
}

// LoadConfig загружает конфигурацию из JSON-файла (если путь передан
// и файл существует) или из переменных окружения
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			config, err := parseConfigFile(data)
			if err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", path, err)
			}
			if err := config.Validate(); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", path, err)
			}
			return config, nil
		}
	}

	// Fallback на переменные окружения
	config := &Config{
		Port: getEnv("SERVER_PORT", "9999"),

		ParseAPIBaseURL:  getEnv("PARSE_API_BASE_URL", "http://localhost:8000"),
		FilingAPIBaseURL: getEnv("FILING_API_BASE_URL", "http://localhost:8001"),

		ClassifyNameSeparately: getEnv("CLASSIFY_NAME_SEPARATELY", "false") == "true",

		SubmitRatePerSecond: getEnvFloat("SUBMIT_RATE_PER_SECOND", 1),
		MaxRetries:          getEnvInt("SUBMIT_MAX_RETRIES", 0),
		FetchTokenPerItem:   getEnv("FETCH_TOKEN_PER_ITEM", "false") == "true",
		SubmitTimeout:       getEnvDuration("SUBMIT_TIMEOUT", 60*time.Second),

		JournalPath: getEnv("JOURNAL_PATH", "journal.db"),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_SIZE", 32<<20)),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// parseConfigFile разбирает JSON-файл конфигурации
func parseConfigFile(data []byte) (*Config, error) {
	var cfgJSON configJSON
	if err := json.Unmarshal(data, &cfgJSON); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	submitTimeout, err := time.ParseDuration(cfgJSON.SubmitTimeout)
	if err != nil {
		submitTimeout = 60 * time.Second // fallback
	}

	config := &Config{
		Port:                   cfgJSON.Port,
		ParseAPIBaseURL:        cfgJSON.ParseAPIBaseURL,
		FilingAPIBaseURL:       cfgJSON.FilingAPIBaseURL,
		ClassifyNameSeparately: cfgJSON.ClassifyNameSeparately,
		SubmitRatePerSecond:    cfgJSON.SubmitRatePerSecond,
		MaxRetries:             cfgJSON.MaxRetries,
		FetchTokenPerItem:      cfgJSON.FetchTokenPerItem,
		SubmitTimeout:          submitTimeout,
		JournalPath:            cfgJSON.JournalPath,
		LogLevel:               cfgJSON.LogLevel,
		MaxUploadSize:          cfgJSON.MaxUploadSize,
	}

	// Значения по умолчанию для опущенных полей
	if config.Port == "" {
		config.Port = "9999"
	}
	if config.SubmitRatePerSecond == 0 {
		config.SubmitRatePerSecond = 1
	}
	if config.JournalPath == "" {
		config.JournalPath = "journal.db"
	}
	if config.LogLevel == "" {
		config.LogLevel = "INFO"
	}
	if config.MaxUploadSize == 0 {
		config.MaxUploadSize = 32 << 20
	}

	return config, nil
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64 или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
