package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// RecordingConfig controls the session audio recorder. All fields are fixed
// for the lifetime of a recorder instance.
type RecordingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	RootDir        string `mapstructure:"root_dir" validate:"required"`
	SegmentSeconds int    `mapstructure:"segment_seconds" validate:"required,min=1"`
	SampleRate     int    `mapstructure:"sample_rate" validate:"required,min=8000"`
	Channels       int    `mapstructure:"channels" validate:"required,min=1,max=2"`
	MP3Bitrate     string `mapstructure:"mp3_bitrate" validate:"required"`
	FFmpegPath     string `mapstructure:"ffmpeg_path" validate:"required"`
	KeepWAV        bool   `mapstructure:"keep_wav"`
	RetentionDays  int    `mapstructure:"retention_days"`
}

// AuthConfig controls connection authentication. When disabled every
// connection is accepted and missing identity headers fall back to "unknown".
type AuthConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Secret         string   `mapstructure:"secret"`
	ExpireSeconds  int      `mapstructure:"expire_seconds"`
	AllowedDevices []string `mapstructure:"allowed_devices"`
}

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	HTTPPort int    `mapstructure:"http_port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path" validate:"required"`

	Recording RecordingConfig `mapstructure:"recording" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env variables.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "voice-gateway")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8000)
	v.SetDefault("HTTP_PORT", 8002)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "logs")

	v.SetDefault("RECORDING__ENABLED", false)
	v.SetDefault("RECORDING__ROOT_DIR", "/recordings")
	v.SetDefault("RECORDING__SEGMENT_SECONDS", 180)
	v.SetDefault("RECORDING__SAMPLE_RATE", 16000)
	v.SetDefault("RECORDING__CHANNELS", 1)
	v.SetDefault("RECORDING__MP3_BITRATE", "64k")
	v.SetDefault("RECORDING__FFMPEG_PATH", "ffmpeg")
	v.SetDefault("RECORDING__KEEP_WAV", false)
	v.SetDefault("RECORDING__RETENTION_DAYS", 0)

	v.SetDefault("AUTH__ENABLED", false)
	v.SetDefault("AUTH__SECRET", "")
	v.SetDefault("AUTH__EXPIRE_SECONDS", 0)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
