package config

import "github.com/spf13/viper"

type Config struct {
	DBUrl               string  `mapstructure:"DB_URL"`
	RedisAddr           string  `mapstructure:"REDIS_ADDR"`
	ServerPort          string  `mapstructure:"SERVER_PORT"`
	Env                 string  `mapstructure:"ENV"`
	JWTSecret           string  `mapstructure:"JWT_SECRET"`
	ChannelStaggerMs    int     `mapstructure:"CHANNEL_STAGGER_MS"`
	LocateTimeoutSec    int     `mapstructure:"LOCATE_TIMEOUT_SEC"`
	MaxLocationReadings int     `mapstructure:"MAX_LOCATION_READINGS"`
	ReadingIntervalMs   int     `mapstructure:"READING_INTERVAL_MS"`
	ExcellentAccuracyM  float64 `mapstructure:"EXCELLENT_ACCURACY_M"`
	PoorAccuracyM       float64 `mapstructure:"POOR_ACCURACY_M"`
}

func Load() (Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("CHANNEL_STAGGER_MS", 120)
	viper.SetDefault("LOCATE_TIMEOUT_SEC", 30)
	viper.SetDefault("MAX_LOCATION_READINGS", 3)
	viper.SetDefault("READING_INTERVAL_MS", 2000)
	viper.SetDefault("EXCELLENT_ACCURACY_M", 5.0)
	viper.SetDefault("POOR_ACCURACY_M", 200.0)

	if err := viper.ReadInConfig(); err != nil {
	}

	var cfg Config
	err := viper.Unmarshal(&cfg)
	return cfg, err
}
