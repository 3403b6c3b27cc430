// Package config 命令行工具的配置, YAML 文件 + .env / 环境变量覆盖
package config

import (
	"fmt"
	"os"
	"strconv"

	segment "github.com/getcharzp/go-segment"
	"github.com/getcharzp/go-segment/sam2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 环境变量
const (
	EnvLibPath   = "SAM2_ONNXRUNTIME_LIB"
	EnvEncoder   = "SAM2_ENCODER"
	EnvDecoder   = "SAM2_DECODER"
	EnvDevice    = "SAM2_DEVICE"
	EnvThreshold = "SAM2_MASK_THRESHOLD"
)

// Config 命令行配置
type Config struct {
	Model  ModelConfig  `yaml:"model"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// ModelConfig 模型与推理参数
type ModelConfig struct {
	OnnxRuntimeLib string   `yaml:"onnxruntime_lib"`
	Encoder        string   `yaml:"encoder"`
	Decoder        string   `yaml:"decoder"`
	Device         string   `yaml:"device"` // "cpu" | "gpu"
	DeviceID       int      `yaml:"device_id,omitempty"`
	NumThreads     int      `yaml:"num_threads,omitempty"`
	NumWorkers     int      `yaml:"num_workers,omitempty"`
	MaskThreshold  *float32 `yaml:"mask_threshold,omitempty"`
	ScaleFactor    int      `yaml:"scale_factor,omitempty"`
	MinMaskArea    int      `yaml:"min_mask_area,omitempty"`
}

// OutputConfig 输出参数
type OutputConfig struct {
	Dir     string  `yaml:"dir"`
	Overlay bool    `yaml:"overlay"`
	Alpha   float64 `yaml:"alpha,omitempty"`
	Font    string  `yaml:"font,omitempty"`
}

// LogConfig 日志参数
type LogConfig struct {
	Mode    string `yaml:"mode"` // "debug" | "release"
	Verbose bool   `yaml:"verbose"`
}

// Default 返回默认配置
func Default() *Config {
	def := sam2.DefaultConfig()
	threshold := def.MaskThreshold
	return &Config{
		Model: ModelConfig{
			OnnxRuntimeLib: def.OnnxRuntimeLibPath,
			Encoder:        def.EncodeModelPath,
			Decoder:        def.DecodeModelPath,
			Device:         string(def.Device),
			MaskThreshold:  &threshold,
			ScaleFactor:    def.ScaleFactor,
			MinMaskArea:    def.MinMaskArea,
		},
		Output: OutputConfig{
			Dir:   "./output",
			Alpha: 0.5,
		},
		Log: LogConfig{Mode: "debug"},
	}
}

// Load 读取配置文件 (path 为空时只使用默认值), 再用 .env 与环境变量覆盖
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	// .env 不存在时忽略
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLibPath); v != "" {
		c.Model.OnnxRuntimeLib = v
	}
	if v := os.Getenv(EnvEncoder); v != "" {
		c.Model.Encoder = v
	}
	if v := os.Getenv(EnvDecoder); v != "" {
		c.Model.Decoder = v
	}
	if v := os.Getenv(EnvDevice); v != "" {
		c.Model.Device = v
	}
	if v := os.Getenv(EnvThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("%s 无效: %w", EnvThreshold, err)
		}
		threshold := float32(f)
		c.Model.MaskThreshold = &threshold
	}
	return nil
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.Model.Encoder == "" || c.Model.Decoder == "" {
		return fmt.Errorf("encoder 和 decoder 模型路径不能为空")
	}
	if c.Model.OnnxRuntimeLib == "" {
		return fmt.Errorf("onnxruntime_lib 不能为空")
	}
	if _, err := segment.ParseDevice(c.Model.Device); err != nil {
		return err
	}
	if c.Output.Alpha < 0 || c.Output.Alpha > 1 {
		return fmt.Errorf("output.alpha 需在 [0, 1] 之间")
	}
	return nil
}

// EngineConfig 转换为 sam2 引擎配置
func (c *Config) EngineConfig() sam2.Config {
	cfg := sam2.DefaultConfig()
	cfg.OnnxRuntimeLibPath = c.Model.OnnxRuntimeLib
	cfg.EncodeModelPath = c.Model.Encoder
	cfg.DecodeModelPath = c.Model.Decoder
	cfg.Device, _ = segment.ParseDevice(c.Model.Device)
	cfg.DeviceID = c.Model.DeviceID
	cfg.NumThreads = c.Model.NumThreads
	cfg.NumWorkers = c.Model.NumWorkers
	if c.Model.MaskThreshold != nil {
		cfg.MaskThreshold = *c.Model.MaskThreshold
	}
	if c.Model.ScaleFactor > 0 {
		cfg.ScaleFactor = c.Model.ScaleFactor
	}
	if c.Model.MinMaskArea >= 0 {
		cfg.MinMaskArea = c.Model.MinMaskArea
	}
	return cfg
}
