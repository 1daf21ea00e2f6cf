package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkravets/meetplanner/internal/logger"
	"github.com/mkravets/meetplanner/internal/rabbit"
	"github.com/mkravets/meetplanner/internal/storagebuilder"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

type SchedulerConfig struct {
	CheckInterval time.Duration
	Advance       time.Duration
	PurgeInterval time.Duration
	RetentionDays int
}

type Config struct {
	Logger    logger.Config
	Rabbit    rabbit.Config
	Storage   storagebuilder.Config
	Scheduler SchedulerConfig
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	viper.SetConfigFile(configFile)

	viper.SetDefault("rabbit.host", "127.0.0.1")
	viper.SetDefault("rabbit.port", "5672")
	viper.SetDefault("rabbit.user", "user")
	viper.SetDefault("rabbit.password", "pass")
	viper.SetDefault("rabbit.queue", "planner.reminders")
	viper.SetDefault("logger.level", "WARN")
	viper.SetDefault("storage.storageType", "memory")
	viper.SetDefault("scheduler.checkInterval", "1m")
	viper.SetDefault("scheduler.advance", "15m")
	viper.SetDefault("scheduler.purgeInterval", "5m")
	viper.SetDefault("scheduler.retentionDays", "365")

	err := viper.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := viper.AllKeys()
	for _, key := range keys {
		env := viper.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			err := viper.BindEnv(key, env[len(envConfigPrefix):])
			if err != nil {
				return Config{}, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}
