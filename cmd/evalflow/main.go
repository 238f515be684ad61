// =============================================================================
// EvalFlow 主入口
// =============================================================================
// 多模态评测内容流水线的命令行入口：解析数据集样本、调度到目标
// 提供商格式、查询已落库的评测日志
//
// 使用方法:
//
//	evalflow dispatch --provider openai --model gpt-4o --input sample.json
//	evalflow check --provider gemini --model gemini-2.0-flash --modality video
//	evalflow entries --sample s1                  # 查询样本日志
//	evalflow entries --run run-7                  # 查询运行日志
//	evalflow version                              # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/BaSui01/evalflow"
	"github.com/BaSui01/evalflow/config"
	"github.com/BaSui01/evalflow/dispatch"
	"github.com/BaSui01/evalflow/internal/ctxkeys"
	"github.com/BaSui01/evalflow/media"
	"github.com/BaSui01/evalflow/types"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "dispatch":
		runDispatch(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "entries":
		runEntries(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// commonFlags 各子命令共享的系统装配参数。
type commonFlags struct {
	configPath      string
	capabilityTable string
	noLogMedia      bool
}

func registerCommonFlags(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	fs.StringVar(&cf.configPath, "config", "", "Path to config file")
	fs.StringVar(&cf.capabilityTable, "capability-table", "", "Path to capability table YAML (overrides config)")
	fs.BoolVar(&cf.noLogMedia, "no-log-media", false, "Record media placeholders instead of content in eval logs")
	return cf
}

// openSystem 按命令行参数装配系统，命令行覆盖配置文件。
func openSystem(cf *commonFlags) *evalflow.System {
	loader := config.NewLoader()
	if cf.configPath != "" {
		loader = loader.WithConfigPath(cf.configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cf.capabilityTable != "" {
		cfg.Media.CapabilityTable = cf.capabilityTable
	}
	if cf.noLogMedia {
		cfg.Media.IncludeInLogs = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	sys, err := evalflow.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return sys
}

// =============================================================================
// 🚀 dispatch 命令
// =============================================================================

func runDispatch(args []string) {
	fs := flag.NewFlagSet("dispatch", flag.ExitOnError)
	cf := registerCommonFlags(fs)
	provider := fs.String("provider", "", "Target provider (openai, anthropic, gemini)")
	model := fs.String("model", "", "Target model name")
	input := fs.String("input", "", "Path to a JSON file with content items")
	sampleID := fs.String("sample", "", "Sample ID to record the result under (empty skips recording)")
	runID := fs.String("run", "", "Eval run ID attached to recorded entries")
	fs.Parse(args)

	if *provider == "" || *model == "" || *input == "" {
		fmt.Fprintln(os.Stderr, "dispatch requires --provider, --model and --input")
		os.Exit(1)
	}

	raw, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}
	items, err := media.DecodeContentItems(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode content items: %v\n", err)
		os.Exit(1)
	}

	sys := openSystem(cf)
	defer sys.Close()

	ctx := context.Background()
	if *runID != "" {
		ctx = ctxkeys.WithRunID(ctx, *runID)
	}
	if *sampleID != "" {
		ctx = ctxkeys.WithSampleID(ctx, *sampleID)
	}

	req := &dispatch.Request{
		Provider: *provider,
		Model:    *model,
		BaseDir:  filepath.Dir(*input),
		Items:    items,
	}
	payload, resolved, dispatchErr := sys.Dispatcher.Dispatch(ctx, req)

	// 样本无论成败都落库
	if *sampleID != "" {
		if err := sys.Sink.Record(ctx, *sampleID, *provider, *model, resolved, dispatchErr); err != nil {
			sys.Logger.Error("failed to record sample", zap.Error(err))
		}
	}

	if dispatchErr != nil {
		fmt.Fprintf(os.Stderr, "Dispatch failed: %v\n", dispatchErr)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal payload: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// =============================================================================
// 🔍 check 命令
// =============================================================================

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cf := registerCommonFlags(fs)
	provider := fs.String("provider", "", "Target provider")
	model := fs.String("model", "", "Target model name")
	modality := fs.String("modality", "image", "Modality to check (image, audio, video)")
	fs.Parse(args)

	if *provider == "" || *model == "" {
		fmt.Fprintln(os.Stderr, "check requires --provider and --model")
		os.Exit(1)
	}

	sys := openSystem(cf)
	defer sys.Close()

	kind := types.MediaKind(*modality)
	fmt.Printf("capability table version: %d\n", sys.Registry.Version())
	if err := sys.Registry.CheckModality(*provider, *model, kind); err != nil {
		fmt.Printf("%s/%s does not support %s\n", *provider, *model, kind)
		os.Exit(1)
	}
	if sys.Registry.RequiresUpload(*provider, *model, kind) {
		fmt.Printf("%s/%s supports %s (via pre-upload)\n", *provider, *model, kind)
		return
	}
	fmt.Printf("%s/%s supports %s (inline)\n", *provider, *model, kind)
}

// =============================================================================
// 📜 entries 命令
// =============================================================================

func runEntries(args []string) {
	fs := flag.NewFlagSet("entries", flag.ExitOnError)
	cf := registerCommonFlags(fs)
	sampleID := fs.String("sample", "", "Sample ID to query")
	runID := fs.String("run", "", "Eval run ID to query")
	fs.Parse(args)

	if (*sampleID == "") == (*runID == "") {
		fmt.Fprintln(os.Stderr, "entries requires exactly one of --sample or --run")
		os.Exit(1)
	}

	sys := openSystem(cf)
	defer sys.Close()

	ctx := context.Background()
	entries, err := queryEntries(ctx, sys, *sampleID, *runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal entries: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func queryEntries(ctx context.Context, sys *evalflow.System, sampleID, runID string) (any, error) {
	if sampleID != "" {
		return sys.Sink.BySample(ctx, sampleID)
	}
	return sys.Sink.ByRun(ctx, runID)
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("EvalFlow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`EvalFlow - Multimodal Eval Content Pipeline

Usage:
  evalflow <command> [options]

Commands:
  dispatch  Resolve and assemble content items for a provider/model
  check     Check provider/model capability for a modality
  entries   Query recorded eval log entries
  version   Show version information
  help      Show this help message

Common options:
  --config <path>            Path to configuration file (YAML)
  --capability-table <path>  Capability table YAML (overrides config)
  --no-log-media             Record placeholders instead of media content

Examples:
  evalflow dispatch --provider openai --model gpt-4o --input sample.json --sample s1
  evalflow check --provider gemini --model gemini-2.0-flash --modality video
  evalflow entries --run nightly-2026-08-28
  evalflow version`)
}
