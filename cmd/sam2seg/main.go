// sam2seg 根据点/框提示对单张图片进行分割, 每个 Mask 输出为一张 PNG
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	segment "github.com/getcharzp/go-segment"
	"github.com/getcharzp/go-segment/internal/config"
	"github.com/getcharzp/go-segment/internal/logger"
	"github.com/getcharzp/go-segment/sam2"
	"github.com/up-zero/gotool/imageutil"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("sam2seg", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML 配置文件路径")
	imagePath := fs.String("image", "", "输入图片路径")
	outDir := fs.String("out", "", "输出目录 (覆盖配置)")
	fontPath := fs.String("font", "", "叠加图中标注分数使用的字体 (覆盖配置)")
	overlay := fs.Bool("overlay", false, "同时输出叠加效果图")
	best := fs.Bool("best", false, "只输出置信度最高的 Mask")
	positive := &shapeList{}
	negative := &shapeList{}
	boxes := &shapeList{rect: true}
	fs.Var(positive, "point", "正向点 x,y, 可重复")
	fs.Var(negative, "neg", "负向点 x,y, 可重复")
	fs.Var(boxes, "box", "框选 x1,y1,x2,y2, 可重复")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" {
		fs.Usage()
		return fmt.Errorf("缺少 -image")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *fontPath != "" {
		cfg.Output.Font = *fontPath
	}
	cfg.Output.Overlay = cfg.Output.Overlay || *overlay

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Verbose)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// 框和点都属于正向提示, 框在前
	prompts := append(append([]sam2.Shape{}, boxes.shapes...), positive.shapes...)
	if len(prompts) == 0 {
		return sam2.ErrNoPositivePrompt
	}

	img, err := imageutil.Open(*imagePath)
	if err != nil {
		return fmt.Errorf("打开图片失败: %w", err)
	}

	engineCfg := cfg.EngineConfig()
	engineCfg.Logger = log
	engine, err := sam2.NewEngine(engineCfg)
	if err != nil {
		return err
	}
	defer engine.Destroy()

	spinner := progressEnabled()
	stop := startSpinner(spinner, "encoding")
	imgCtx, err := engine.EncodeImage(img)
	stop()
	if err != nil {
		return err
	}
	defer imgCtx.Destroy()

	stop = startSpinner(spinner, "decoding")
	results, err := imgCtx.Predict(prompts, negative.shapes)
	stop()
	if err != nil {
		return err
	}

	kept := sam2.FilterByArea(results, engineCfg.MinMaskArea)
	log.Info("prediction finished",
		zap.Int("masks", len(results)),
		zap.Int("kept", len(kept)),
		zap.Int("min_area", engineCfg.MinMaskArea),
	)
	if *best {
		if r, ok := sam2.BestResult(kept); ok {
			kept = []sam2.MaskResult{r}
		}
	}
	return writeResults(cfg, *imagePath, img, kept, log)
}

// writeResults 保存 Mask 及可选的叠加图
func writeResults(cfg *config.Config, imagePath string, img image.Image, results []sam2.MaskResult, log *zap.Logger) error {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))

	var drawer *segment.TextDrawer
	if cfg.Output.Overlay && cfg.Output.Font != "" {
		d, err := segment.NewTextDrawer(cfg.Output.Font)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.SetSize(float64(max(img.Bounds().Dy()/40, 12))); err != nil {
			return err
		}
		drawer = d
	}

	var canvas draw.Image
	for i, r := range results {
		path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("%s_mask_%d.png", base, i+1))
		if err := imageutil.Save(path, r.Mask, 100); err != nil {
			return fmt.Errorf("保存 Mask 失败: %w", err)
		}
		log.Info("mask saved", zap.String("path", path), zap.Float32("score", r.Score), zap.Int("area", r.Area(128)))

		if !cfg.Output.Overlay {
			continue
		}
		src := img
		if canvas != nil {
			src = canvas
		}
		c := segment.PaletteColor(i)
		out, err := segment.DrawMask(src, r.Mask, c, cfg.Output.Alpha)
		if err != nil {
			return err
		}
		if drawer != nil {
			drawer.DrawLabel(out, r.Mask, fmt.Sprintf("#%d %.3f", i+1, r.Score), c)
		}
		canvas = out
	}

	if canvas != nil {
		path := filepath.Join(cfg.Output.Dir, base+"_overlay.png")
		if err := imageutil.Save(path, canvas, 100); err != nil {
			return fmt.Errorf("保存叠加图失败: %w", err)
		}
		log.Info("overlay saved", zap.String("path", path))
	}
	return nil
}
