// internal/config/logger.go
package config

import (
	"encoding/json"
	"os"

	"github.com/erilali/framechat/internal/logger"
)

// LoadLoggerConfig loads the logger configuration from a JSON file.
// A missing file yields the defaults.
func LoadLoggerConfig(filePath string) (logger.LogConfig, error) {
	config := logger.DefaultLogConfig()
	if filePath == "" {
		return config, nil
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}
	defer file.Close()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, err
	}
	return config, nil
}
