package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Tamper    TamperConfig    `mapstructure:"tamper"`
	Inference InferenceConfig `mapstructure:"inference"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	UploadDir    string   `mapstructure:"upload_dir"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// TamperConfig 篡改样本生成配置
type TamperConfig struct {
	Count          int     `mapstructure:"count"`
	RealDir        string  `mapstructure:"real_dir"`
	TamperedDir    string  `mapstructure:"tampered_dir"`
	Seed           int64   `mapstructure:"seed"`
	FontFace       string  `mapstructure:"font_face"`
	FontScale      float64 `mapstructure:"font_scale"`
	SkipUnreadable bool    `mapstructure:"skip_unreadable"`
	Additive       bool    `mapstructure:"additive"`
	WriteManifest  bool    `mapstructure:"write_manifest"`
	JPEGQuality    int     `mapstructure:"jpeg_quality"`
}

// InferenceConfig 推理服务配置
type InferenceConfig struct {
	ModelPath        string  `mapstructure:"model_path"`
	InputSize        int     `mapstructure:"input_size"`
	Threshold        float64 `mapstructure:"threshold"`
	MaxConcurrent    int     `mapstructure:"max_concurrent"`
	QueueTimeout     int     `mapstructure:"queue_timeout"`
	CleanupTempFiles bool    `mapstructure:"cleanup_temp_files"`
}

// Load 从 YAML 文件加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New 使用默认配置路径加载配置
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		// 如果加载失败，返回默认配置
		return getDefaultConfig()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.upload_dir", "./uploads")
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/jpg"})

	v.SetDefault("tamper.count", 600)
	v.SetDefault("tamper.real_dir", "data/real")
	v.SetDefault("tamper.tampered_dir", "data/tampered")
	v.SetDefault("tamper.seed", 0)
	v.SetDefault("tamper.font_face", "simplex")
	v.SetDefault("tamper.font_scale", 0.8)
	v.SetDefault("tamper.skip_unreadable", true)
	v.SetDefault("tamper.additive", false)
	v.SetDefault("tamper.write_manifest", true)
	v.SetDefault("tamper.jpeg_quality", 95)

	v.SetDefault("inference.model_path", "outputs/resnet_invoice.onnx")
	v.SetDefault("inference.input_size", 256)
	v.SetDefault("inference.threshold", 0.5)
	v.SetDefault("inference.max_concurrent", 3)
	v.SetDefault("inference.queue_timeout", 30)
	v.SetDefault("inference.cleanup_temp_files", true)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:      10 * 1024 * 1024,
			UploadDir:    "./uploads",
			AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg"},
		},
		Tamper: TamperConfig{
			Count:          600,
			RealDir:        "data/real",
			TamperedDir:    "data/tampered",
			Seed:           0,
			FontFace:       "simplex",
			FontScale:      0.8,
			SkipUnreadable: true,
			Additive:       false,
			WriteManifest:  true,
			JPEGQuality:    95,
		},
		Inference: InferenceConfig{
			ModelPath:        "outputs/resnet_invoice.onnx",
			InputSize:        256,
			Threshold:        0.5,
			MaxConcurrent:    3,
			QueueTimeout:     30,
			CleanupTempFiles: true,
		},
	}
}
