package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/codestrip/batch"
	"github.com/ByLCY/codestrip/config"
	"github.com/ByLCY/codestrip/dsl"
	"github.com/ByLCY/codestrip/logging"
	"github.com/ByLCY/codestrip/partition"
	"github.com/ByLCY/codestrip/renderer"
	"github.com/ByLCY/codestrip/renderer/raster"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// app 持有各子命令共享的配置与日志。
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "codestrip",
		Short: "将源代码渲染为图像并按空行切分为多栏",
		Long: `codestrip 将纯文本源代码渲染为图像，按连续空行寻找候选切分点，
用分支定界选出使各段行数最均衡的切分，再把各段并排输出为 PNG/JPEG/PDF/SVG。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			if a.logger, err = logging.New(cfg.Logging, a.verbose); err != nil {
				return err
			}
			if cmd.HasParent() && cmd.Parent().Name() == "config" {
				return nil
			}
			return cfg.Validate()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "配置文件路径")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "输出调试日志")

	root.AddCommand(a.splitCmd(), a.pivotsCmd(), a.runCmd(), a.configCmd())
	return root
}

// partitionFlags 是 split / pivots 共用的切分参数，未设置时使用配置值。
type partitionFlags struct {
	segments int
	breakAt  string
}

func (f *partitionFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.segments, "segments", "n", 0, "分段数（默认取配置）")
	cmd.Flags().StringVarP(&f.breakAt, "break", "b", "", "切分策略: auto | uniform | 空行连续数 k")
}

func (f *partitionFlags) apply(job *batch.Job) error {
	if f.segments != 0 {
		job.Segments = f.segments
	}
	if f.breakAt != "" {
		crit, err := partition.ParseCriterion(f.breakAt)
		if err != nil {
			return err
		}
		job.Criterion = crit
	}
	return nil
}

func (a *app) splitCmd() *cobra.Command {
	var (
		pf          partitionFlags
		output      string
		format      string
		font        string
		debug       bool
		lineNumbers bool
		scale       float64
		width       int
	)
	cmd := &cobra.Command{
		Use:   "split <source>",
		Short: "渲染并切分单个源文件",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := batch.JobFromConfig(a.cfg)
			if err != nil {
				return err
			}
			if err := pf.apply(&job); err != nil {
				return err
			}
			job.Name = filepath.Base(args[0])
			job.Source = args[0]
			job.Meta.Title = job.Name
			job.Meta.Creator = "codestrip"
			if font != "" {
				job.Raster.FontSrc = font
			}
			if cmd.Flags().Changed("line-numbers") {
				job.Raster.LineNumbers = lineNumbers
			}
			if format != "" {
				if job.Format, err = renderer.ParseFormat(format); err != nil {
					return err
				}
			} else if output != "" {
				job.Format = renderer.FormatFromPath(output, job.Format)
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + string(job.Format)
			}
			job.Output = output
			if cmd.Flags().Changed("debug") {
				job.Debug = debug
			}
			if cmd.Flags().Changed("scale") {
				if scale <= 0 {
					return fmt.Errorf("缩放比例必须为正数: %g", scale)
				}
				job.Sheet.Scale = scale
			}
			if cmd.Flags().Changed("width") {
				if width <= 0 {
					return fmt.Errorf("输出宽度必须为正数: %d", width)
				}
				job.Sheet.Width = width
			}

			res := batch.NewRunner(a.runnerOptions()).Execute(cmd.Context(), job)
			if res.Err != nil {
				return res.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成 %s（%d 段，切分行 %v）\n", res.Output, len(res.Plan.Pivots)+1, res.Plan.Pivots)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVarP(&output, "out", "o", "", "输出路径（默认与源文件同名）")
	cmd.Flags().StringVar(&format, "format", "", "输出格式: png | jpeg | pdf | svg")
	cmd.Flags().StringVar(&font, "font", "", "字体: builtin:gomono 或 TTF 路径")
	cmd.Flags().BoolVar(&debug, "debug", false, "在输出旁写出 <out>.json 调试文件")
	cmd.Flags().BoolVar(&lineNumbers, "line-numbers", false, "显示行号")
	cmd.Flags().Float64Var(&scale, "scale", 1, "位图输出的缩放比例")
	cmd.Flags().IntVar(&width, "width", 0, "位图输出宽度（像素），优先于 --scale")
	return cmd
}

func (a *app) pivotsCmd() *cobra.Command {
	var (
		pf      partitionFlags
		lengths string
	)
	cmd := &cobra.Command{
		Use:   "pivots [source]",
		Short: "只计算切分行号并以 JSON 输出",
		Long: `pivots 计算切分方案但不输出图像。给定 --lengths 时直接使用逗号分隔的行长度，
否则渲染 source 以测量每行长度。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := batch.JobFromConfig(a.cfg)
			if err != nil {
				return err
			}
			if err := pf.apply(&job); err != nil {
				return err
			}

			var lineLengths []int
			switch {
			case lengths != "":
				if lineLengths, err = parseLengths(lengths); err != nil {
					return err
				}
			case len(args) == 1:
				if lineLengths, err = measure(args[0], job.Raster); err != nil {
					return err
				}
			default:
				return fmt.Errorf("需要 source 参数或 --lengths")
			}

			planner := partition.NewPlanner(partition.Options{SearchBudget: a.cfg.Partition.SearchBudget, Logger: a.logger})
			plan, err := planner.Plan(lineLengths, job.Segments, job.Criterion)
			if err != nil {
				return fmt.Errorf("计算切分失败（%s）: %w", partition.Classify(err), err)
			}
			return writeJSON(cmd.OutOrStdout(), plan)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&lengths, "lengths", "", "逗号分隔的行长度，例如 5,0,0,3")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var failFast bool
	cmd := &cobra.Command{
		Use:   "run <job-file>",
		Short: "执行任务文件中的全部 sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := dsl.ParseFile(args[0])
			if err != nil {
				return err
			}
			base, err := batch.JobFromConfig(a.cfg)
			if err != nil {
				return err
			}
			jobs, err := batch.FromDocument(doc, base, filepath.Dir(args[0]), a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := a.runnerOptions()
			opts.FailFast = failFast
			results, err := batch.NewRunner(opts).Run(ctx, jobs)
			for _, res := range results {
				if res.Err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", res.Job, res.Output)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "首个任务失败后取消其余任务")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件相关操作",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写出默认配置文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s 已存在（使用 --force 覆盖）", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入 %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "覆盖已有文件")
	cmd.AddCommand(initCmd)
	return cmd
}

func (a *app) runnerOptions() batch.Options {
	return batch.Options{
		Workers: a.cfg.Batch.Workers,
		Planner: partition.NewPlanner(partition.Options{SearchBudget: a.cfg.Partition.SearchBudget, Logger: a.logger}),
		Logger:  a.logger,
	}
}

func measure(path string, opts raster.Options) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取源文件失败: %w", err)
	}
	r, err := raster.New(opts)
	if err != nil {
		return nil, err
	}
	block, err := r.Rasterize(string(data))
	if err != nil {
		return nil, err
	}
	return block.LineLengths, nil
}

func parseLengths(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("行长度无效: %q", f)
		}
		out = append(out, n)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
