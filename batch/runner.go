package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/codestrip/layout"
	"github.com/ByLCY/codestrip/partition"
	"github.com/ByLCY/codestrip/renderer"
	"github.com/ByLCY/codestrip/renderer/bitmap"
	canvasrenderer "github.com/ByLCY/codestrip/renderer/canvas"
	"github.com/ByLCY/codestrip/renderer/raster"
)

// Result 是单个任务的执行结果。
type Result struct {
	Job      string
	Output   string
	Plan     *partition.Plan
	Bytes    int
	Duration time.Duration
	Err      error
}

// Options 配置 Runner。
type Options struct {
	// Workers 为并发上限，<= 0 时不限制。
	Workers int
	// FailFast 为 true 时首个失败会取消尚未开始的任务。
	FailFast bool
	Planner  *partition.Planner
	Logger   *zap.Logger
	// NewRasterizer 为每个任务创建 Rasterizer，默认使用 raster.New。
	NewRasterizer func(raster.Options) (layout.Rasterizer, error)
}

func newRasterizer(opts raster.Options) (layout.Rasterizer, error) {
	return raster.New(opts)
}

// Runner 并发执行任务。每个任务使用独立的 Rasterizer。
type Runner struct {
	opts Options
}

func NewRunner(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Planner == nil {
		opts.Planner = partition.NewPlanner(partition.Options{Logger: opts.Logger})
	}
	if opts.NewRasterizer == nil {
		opts.NewRasterizer = newRasterizer
	}
	return &Runner{opts: opts}
}

// Run 执行全部任务，结果顺序与 jobs 一致。返回的错误合并了所有失败任务的错误；
// ctx 取消后尚未开始的任务以 ctx.Err() 结束。
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if r.opts.Workers > 0 {
		g.SetLimit(r.opts.Workers)
	}
	for i := range jobs {
		job := jobs[i]
		g.Go(func() error {
			res := r.Execute(gctx, job)
			results[i] = res
			if res.Err != nil && r.opts.FailFast {
				return res.Err
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("任务 %s: %w", res.Job, res.Err))
		}
	}
	return results, errors.Join(errs...)
}

// Execute 执行单个任务并写出文件。
func (r *Runner) Execute(ctx context.Context, job Job) Result {
	start := time.Now()
	res := Result{Job: job.Name, Output: job.Output}
	logger := r.opts.Logger.With(zap.String("job", job.Name))

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	result, data, err := r.Split(job)
	if result != nil {
		res.Plan = result.Plan
	}
	if err != nil {
		res.Err = err
		logger.Warn("任务失败", zap.Error(err), zap.String("class", string(partition.Classify(err))))
		return res
	}
	res.Bytes = len(data)

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if err := writeFile(job.Output, data); err != nil {
		res.Err = err
		return res
	}
	if job.Debug {
		if err := layout.WriteDebugJSON(result, job.Output+".json"); err != nil {
			res.Err = fmt.Errorf("写入调试文件失败: %w", err)
			return res
		}
	}

	res.Duration = time.Since(start)
	logger.Info("任务完成",
		zap.String("output", job.Output),
		zap.Ints("pivots", result.Plan.Pivots),
		zap.Stringer("strategy", result.Plan.Strategy),
		zap.Int("bytes", res.Bytes),
		zap.Duration("duration", res.Duration))
	return res
}

// Split 读取源文件、光栅化、切分并渲染，返回切分结果与编码后的数据，不写文件。
func (r *Runner) Split(job Job) (*layout.Result, []byte, error) {
	content := job.Content
	if content == "" {
		if job.Source == "" {
			return nil, nil, fmt.Errorf("未指定源文件")
		}
		data, err := os.ReadFile(job.Source)
		if err != nil {
			return nil, nil, fmt.Errorf("读取源文件失败: %w", err)
		}
		content = string(data)
	}

	rast, err := r.opts.NewRasterizer(job.Raster)
	if err != nil {
		return nil, nil, err
	}
	block, err := rast.Rasterize(content)
	if err != nil {
		return nil, nil, err
	}
	block.Source = job.Source

	result, err := layout.Build(block, layout.BuildOptions{
		Segments:  job.Segments,
		Criterion: job.Criterion,
		Planner:   r.opts.Planner,
		Logger:    r.opts.Logger,
		Meta:      job.Meta,
	})
	if err != nil {
		return nil, nil, err
	}

	data, err := r.rendererFor(job).Render(result)
	if err != nil {
		return result, nil, err
	}
	return result, data, nil
}

func (r *Runner) rendererFor(job Job) renderer.Renderer {
	s := job.Sheet
	if job.Format.IsVector() {
		return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
			Format:     job.Format,
			DPI:        job.Raster.DPI,
			Margin:     s.Margin,
			Gap:        s.Gap,
			FrameWidth: s.FrameWidth,
			FrameColor: s.FrameColor,
			Background: s.Background,
			Logger:     r.opts.Logger,
		})
	}
	return bitmap.New(bitmap.Options{
		Format:      job.Format,
		Arrangement: s.Arrangement,
		Align:       s.Align,
		Gap:         s.Gap,
		Margin:      s.Margin,
		FrameWidth:  s.FrameWidth,
		FrameColor:  s.FrameColor,
		Background:  s.Background,
		Quality:     s.Quality,
		Scale:       s.Scale,
		Width:       s.Width,
		Logger:      r.opts.Logger,
	})
}

func writeFile(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("未指定输出路径")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}
