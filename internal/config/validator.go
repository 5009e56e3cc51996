package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	var errors []string

	// Валидация порта
	if c.Port == "" {
		errors = append(errors, "port is required")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid port: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("port must be between 1 and 65535, got %d", port))
		}
	}

	// Валидация адресов внешних сервисов
	if c.ParseAPIBaseURL == "" {
		errors = append(errors, "parse API base URL is required")
	} else if err := validateBaseURL(c.ParseAPIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("parse API base URL: %v", err))
	}
	if c.FilingAPIBaseURL == "" {
		errors = append(errors, "filing API base URL is required")
	} else if err := validateBaseURL(c.FilingAPIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("filing API base URL: %v", err))
	}

	// Валидация параметров отправки
	if c.SubmitRatePerSecond <= 0 {
		errors = append(errors, "submit rate must be positive")
	}
	if c.MaxRetries < 0 {
		errors = append(errors, "max retries cannot be negative")
	}
	if c.SubmitTimeout < time.Second {
		errors = append(errors, "submit timeout must be at least 1 second")
	}

	// Валидация журнала
	if c.JournalPath == "" {
		errors = append(errors, "journal path is required")
	}

	// Валидация уровня логирования
	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if c.LogLevel != "" {
		valid := false
		logLevelUpper := strings.ToUpper(c.LogLevel)
		for _, level := range validLogLevels {
			if logLevelUpper == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("invalid log level: %s (valid: %s)",
				c.LogLevel, strings.Join(validLogLevels, ", ")))
		}
	}

	// Валидация лимита загрузки
	if c.MaxUploadSize < 1 {
		errors = append(errors, "max upload size must be at least 1 byte")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateBaseURL проверяет, что адрес внешнего сервиса абсолютный http(s) URL
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL host is required")
	}
	return nil
}
