package segment

import (
	"fmt"
	"runtime"
	"strconv"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Device 推理设备
type Device string

const (
	DeviceCPU Device = "cpu"
	DeviceGPU Device = "gpu" // CUDA
)

// ParseDevice 解析设备名称, 空字符串视为 CPU
func ParseDevice(s string) (Device, error) {
	switch s {
	case "", "cpu", "CPU":
		return DeviceCPU, nil
	case "gpu", "GPU", "cuda", "CUDA":
		return DeviceGPU, nil
	}
	return "", fmt.Errorf("未知的推理设备: %q", s)
}

type OnnxConfig struct {
	SessionOptions *ort.SessionOptions

	// 必填参数
	OnnxRuntimeLibPath string // onnxruntime.dll (或 .so, .dylib) 的路径
	// 可选参数
	Device     Device // (可选) 推理设备, 默认 CPU
	DeviceID   int    // (可选) GPU 编号
	NumThreads int    // (可选) ONNX 线程数, 默认由CPU核心数决定
}

var (
	initErr error
	once    sync.Once
)

// New 初始化 ONNX 环境并创建会话选项
func (cfg *OnnxConfig) New() error {
	if cfg.OnnxRuntimeLibPath == "" {
		return fmt.Errorf("OnnxRuntimeLibPath 不能为空")
	}
	once.Do(func() {
		ort.SetSharedLibraryPath(cfg.OnnxRuntimeLibPath)
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return fmt.Errorf("初始化 ONNX Runtime 环境失败: %w", initErr)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("创建 SessionOptions 失败: %w", err)
	}
	if err := cfg.apply(options); err != nil {
		options.Destroy()
		return err
	}
	cfg.SessionOptions = options
	return nil
}

// apply 设置线程数与执行设备
func (cfg *OnnxConfig) apply(options *ort.SessionOptions) error {
	if cfg.NumThreads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return fmt.Errorf("设置线程数失败: %w", err)
		}
	}

	switch cfg.Device {
	case "", DeviceCPU:
		return nil
	case DeviceGPU:
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fmt.Errorf("创建 CUDAProviderOptions 失败: %w", err)
		}
		defer cudaOptions.Destroy()
		if err := cudaOptions.Update(map[string]string{"device_id": strconv.Itoa(cfg.DeviceID)}); err != nil {
			return fmt.Errorf("设置 CUDA 设备失败: %w", err)
		}
		if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			return fmt.Errorf("添加 CUDA 执行提供者失败: %w", err)
		}
		if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
			return fmt.Errorf("设置图优化级别失败: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("未知的推理设备: %q", cfg.Device)
	}
}

// Destroy 释放会话选项, 会话创建完成后即可调用
func (cfg *OnnxConfig) Destroy() {
	if cfg.SessionOptions != nil {
		cfg.SessionOptions.Destroy()
		cfg.SessionOptions = nil
	}
}

// DefaultLibraryPath 根据运行时环境判断加载哪个库文件
func DefaultLibraryPath() string {
	baseDir := "./lib/"
	libName := "onnxruntime"

	// windows onnxruntime.dll
	if runtime.GOOS == "windows" {
		return baseDir + libName + ".dll"
	}

	var ext string
	switch runtime.GOOS {
	case "darwin":
		ext = "dylib"
	case "linux":
		ext = "so"
	default:
		return baseDir + libName + "_amd64.so"
	}

	// ./lib/onnxruntime_amd64.so
	return fmt.Sprintf("%s%s_%s.%s", baseDir, libName, runtime.GOARCH, ext)
}
