// Package batch 将源文件渲染、切分并输出，可并发处理多个任务。
package batch

import (
	"fmt"
	"image/color"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/ByLCY/codestrip/binding"
	"github.com/ByLCY/codestrip/compose"
	"github.com/ByLCY/codestrip/config"
	"github.com/ByLCY/codestrip/dsl"
	"github.com/ByLCY/codestrip/layout"
	"github.com/ByLCY/codestrip/partition"
	"github.com/ByLCY/codestrip/renderer"
	"github.com/ByLCY/codestrip/renderer/bitmap"
	"github.com/ByLCY/codestrip/renderer/raster"
)

// Job 描述一次完整的转换：读取源文件，光栅化，切分为 Segments 段并写出。
type Job struct {
	Name string
	// Source 为源文件路径；Content 非空时直接使用 Content。
	Source  string
	Content string

	Segments  int
	Criterion partition.Criterion

	Output string
	Format renderer.Format
	Debug  bool

	Raster raster.Options
	Sheet  SheetOptions
	Meta   layout.DocumentMeta
}

// SheetOptions 是输出拼接相关的选项（像素）。
type SheetOptions struct {
	Arrangement bitmap.Arrangement
	Align       compose.Align
	Gap         int
	Margin      int
	FrameWidth  int
	FrameColor  color.Color
	Background  color.Color
	Quality     int
	// Scale 与 Width 只作用于位图输出。
	Scale float64
	Width int
}

// JobFromConfig 根据配置构造任务模板，调用方再填入 Name/Source/Output。
func JobFromConfig(cfg *config.Config) (Job, error) {
	crit, err := cfg.Criterion()
	if err != nil {
		return Job{}, err
	}
	format, err := renderer.ParseFormat(cfg.Output.Format)
	if err != nil {
		return Job{}, err
	}
	arrangement, err := bitmap.ParseArrangement(cfg.Output.Layout)
	if err != nil {
		return Job{}, err
	}
	align, err := compose.ParseAlign(cfg.Output.Align)
	if err != nil {
		return Job{}, err
	}
	colors := map[string]color.Color{}
	for name, value := range map[string]string{
		"foreground":  cfg.Render.Foreground,
		"background":  cfg.Render.Background,
		"frame-color": cfg.Output.FrameColor,
	} {
		if value == "" {
			continue
		}
		c, err := compose.ParseColor(value)
		if err != nil {
			return Job{}, fmt.Errorf("%s: %w", name, err)
		}
		colors[name] = c
	}

	return Job{
		Segments:  cfg.Partition.Segments,
		Criterion: crit,
		Format:    format,
		Debug:     cfg.Output.Debug,
		Raster: raster.Options{
			FontSrc:     cfg.Render.Font,
			FontSize:    cfg.Render.FontSize,
			DPI:         cfg.Render.DPI,
			TabWidth:    cfg.Render.TabWidth,
			Padding:     cfg.Render.Padding,
			LineSpacing: cfg.Render.LineSpacing,
			LineNumbers: cfg.Render.LineNumbers,
			Foreground:  colors["foreground"],
			Background:  colors["background"],
		},
		Sheet: SheetOptions{
			Arrangement: arrangement,
			Align:       align,
			Gap:         cfg.Output.Gap,
			Margin:      cfg.Output.Margin,
			FrameWidth:  cfg.Output.Frame,
			FrameColor:  colors["frame-color"],
			Background:  colors["background"],
			Quality:     cfg.Output.Quality,
			Scale:       cfg.Output.Scale,
			Width:       cfg.Output.Width,
		},
	}, nil
}

// FromDocument 将任务文件展开为 Job 列表。base 提供未在文件中设置的默认值，
// 相对路径（source、font）以 baseDir 为根。
func FromDocument(doc *dsl.Document, base Job, baseDir string, logger *zap.Logger) ([]Job, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sheets, err := doc.Sheets()
	if err != nil {
		return nil, err
	}
	metaProps, err := doc.Meta()
	if err != nil {
		return nil, err
	}
	meta := layout.DocumentMeta{
		Title:    metaProps.String("title", doc.Name),
		Author:   metaProps.String("author", ""),
		Subject:  metaProps.String("subject", ""),
		Creator:  metaProps.String("creator", "codestrip"),
		Keywords: metaProps.Strings("keywords"),
	}

	jobs := make([]Job, 0, len(sheets))
	for i, sheet := range sheets {
		job, err := applySheet(base, sheet.Props)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet.Name, err)
		}
		job.Name = sheet.Name
		job.Meta = meta
		job.Source = resolvePath(baseDir, job.Source)
		job.Raster.BaseDir = baseDir

		template := sheet.Props.String("output", "${name}."+string(job.Format))
		vars := binding.Vars{
			"name":     sheet.Name,
			"segments": job.Segments,
			"index":    i + 1,
			"format":   string(job.Format),
			"job":      binding.Vars{"name": doc.Name, "version": doc.Version},
		}
		if missing := binding.Missing(template, vars); len(missing) > 0 {
			logger.Warn("输出路径中存在未解析的占位符",
				zap.String("sheet", sheet.Name),
				zap.Strings("placeholders", missing))
		}
		job.Output = resolvePath(baseDir, binding.Interpolate(template, vars))
		if _, ok := sheet.Props["format"]; !ok {
			job.Format = renderer.FormatFromPath(job.Output, job.Format)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func applySheet(job Job, props dsl.Properties) (Job, error) {
	var err error
	job.Source = props.String("source", "")
	if job.Segments, err = props.Int("segments", job.Segments); err != nil {
		return job, err
	}
	if v, ok := props["break"]; ok {
		if job.Criterion, err = partition.ParseCriterion(v.Text()); err != nil {
			return job, err
		}
	}
	if v, ok := props["format"]; ok {
		if job.Format, err = renderer.ParseFormat(v.Text()); err != nil {
			return job, err
		}
	}
	if job.Debug, err = props.Bool("debug", job.Debug); err != nil {
		return job, err
	}

	r := &job.Raster
	r.FontSrc = props.String("font", r.FontSrc)
	if r.FontSize, err = props.Float("font-size", r.FontSize); err != nil {
		return job, err
	}
	if r.DPI, err = props.Float("dpi", r.DPI); err != nil {
		return job, err
	}
	if r.TabWidth, err = props.Int("tab-width", r.TabWidth); err != nil {
		return job, err
	}
	if r.LineNumbers, err = props.Bool("line-numbers", r.LineNumbers); err != nil {
		return job, err
	}
	if job.Sheet.Scale, err = props.Float("scale", job.Sheet.Scale); err != nil {
		return job, err
	}
	if job.Sheet.Scale < 0 {
		return job, fmt.Errorf("属性 scale: 缩放比例不能为负数: %g", job.Sheet.Scale)
	}
	for key, dst := range map[string]*int{
		"padding":      &r.Padding,
		"line-spacing": &r.LineSpacing,
		"gap":          &job.Sheet.Gap,
		"margin":       &job.Sheet.Margin,
		"frame":        &job.Sheet.FrameWidth,
		"width":        &job.Sheet.Width,
	} {
		if v, ok := props[key]; ok {
			if *dst, err = pixels(v.Text(), r.DPI); err != nil {
				return job, fmt.Errorf("属性 %s: %w", key, err)
			}
		}
	}
	for key, dst := range map[string]*color.Color{
		"foreground":  &r.Foreground,
		"background":  &r.Background,
		"frame-color": &job.Sheet.FrameColor,
	} {
		if v, ok := props[key]; ok {
			if *dst, err = compose.ParseColor(v.Text()); err != nil {
				return job, fmt.Errorf("属性 %s: %w", key, err)
			}
		}
	}
	if _, ok := props["background"]; ok {
		job.Sheet.Background = r.Background
	}
	if v, ok := props["layout"]; ok {
		if job.Sheet.Arrangement, err = bitmap.ParseArrangement(v.Text()); err != nil {
			return job, err
		}
	}
	if v, ok := props["align"]; ok {
		if job.Sheet.Align, err = compose.ParseAlign(v.Text()); err != nil {
			return job, err
		}
	}
	return job, nil
}

var zeroLength = regexp.MustCompile(`^\s*0*(\.0*)?\s*(px|pt|mm|cm|in)?\s*$`)

// pixels 将带单位的长度（px/pt/mm/cm/in，无单位视为 px）换算为像素。
func pixels(value string, dpi float64) (int, error) {
	l := layout.ParseLength(value)
	if l.IsZero() && !zeroLength.MatchString(value) {
		return 0, fmt.Errorf("无法解析长度 %q", value)
	}
	return l.ToPx(dpi), nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
