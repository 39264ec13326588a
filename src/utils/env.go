package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const DEV_ENV_FILENAME = ".env.development"
const PROD_ENV_FILENAME = ".env.production"

// InitEnvironmentVariables loads the .env file matching GO_ENV from BOT_ENV_DIR (default:
// the working directory). Variables already set in the process win. A missing file is
// not an error.
func InitEnvironmentVariables() error {
	if os.Getenv("ENV") == "production" {
		log.Info("Running in production environment")
		return nil
	}

	envDir := GetEnvOrDefault("BOT_ENV_DIR", ".")

	envFile := filepath.Join(envDir, DEV_ENV_FILENAME)
	if os.Getenv("GO_ENV") == "production" {
		envFile = filepath.Join(envDir, PROD_ENV_FILENAME)
	}

	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debugf("no %s file, using process environment", envFile)
			return nil
		}

		return fmt.Errorf("failed to load %s file: %w", envFile, err)
	}

	log.Debugf("loaded %s", envFile)
	return nil
}

func GetEnv(key string) (string, error) {
	value, found := os.LookupEnv(key)
	if !found || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("environment variable %s not set", key)
	}

	return value, nil
}

func GetEnvOrDefault(key, fallback string) string {
	if value, err := GetEnv(key); err == nil {
		return value
	}

	return fallback
}

// GetEnvBool reports found=false when the variable is unset.
func GetEnvBool(key string) (value bool, found bool, err error) {
	raw, err := GetEnv(key)
	if err != nil {
		return false, false, nil
	}

	value, err = strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, true, fmt.Errorf("environment variable %s: invalid bool %q", key, raw)
	}

	return value, true, nil
}
