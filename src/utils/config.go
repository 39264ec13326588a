package utils

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

const DefaultBotConfigFile = "config.yaml"

// LoadBotConfig builds the bot configuration from the YAML file named by BOT_CONFIG_FILE
// and the broker secrets in the environment. KIWOOM_BASE_URL and DRY_RUN override the
// file.
func LoadBotConfig() (eventmodels.BotConfig, error) {
	configFile := GetEnvOrDefault("BOT_CONFIG_FILE", DefaultBotConfigFile)

	data, err := os.ReadFile(configFile)
	if err != nil {
		return eventmodels.BotConfig{}, fmt.Errorf("LoadBotConfig: failed to read %s: %w", configFile, err)
	}

	configYAML, err := ParseBotConfigYAML(data)
	if err != nil {
		return eventmodels.BotConfig{}, fmt.Errorf("LoadBotConfig: %s: %w", configFile, err)
	}

	if baseURL, err := GetEnv("KIWOOM_BASE_URL"); err == nil {
		configYAML.BaseURL = baseURL
	}

	dryRun, found, err := GetEnvBool("DRY_RUN")
	if err != nil {
		return eventmodels.BotConfig{}, fmt.Errorf("LoadBotConfig: %w", err)
	}

	if found {
		configYAML.DryRun = &dryRun
	}

	cfg, err := configYAML.ToModel(BrokerCredentialsFromEnv())
	if err != nil {
		return eventmodels.BotConfig{}, fmt.Errorf("LoadBotConfig: %w", err)
	}

	log.Infof("loaded config from %s: %d symbols, dry_run=%v, strategy=%s", configFile, len(cfg.Symbols()), cfg.Trading.DryRun, cfg.Strategy)
	return cfg, nil
}

func ParseBotConfigYAML(data []byte) (eventmodels.BotConfigYAML, error) {
	var configYAML eventmodels.BotConfigYAML
	if err := yaml.Unmarshal(data, &configYAML); err != nil {
		return eventmodels.BotConfigYAML{}, fmt.Errorf("failed to unmarshal bot config: %w", err)
	}

	return configYAML, nil
}

func BrokerCredentialsFromEnv() eventmodels.BrokerCredentials {
	return eventmodels.BrokerCredentials{
		AppKey:        os.Getenv("KIWOOM_APP_KEY"),
		AppSecret:     os.Getenv("KIWOOM_APP_SECRET"),
		AccountNumber: os.Getenv("KIWOOM_ACCOUNT_NUMBER"),
	}
}
