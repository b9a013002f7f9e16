package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joshi-parwaaz/invoice-fraud-detector/config"
	"github.com/joshi-parwaaz/invoice-fraud-detector/service"
	"github.com/joshi-parwaaz/invoice-fraud-detector/utils"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "配置文件路径")
		count      = flag.Int("n", 0, "目标生成张数（0 取配置值，默认 600）")
		realDir    = flag.String("real", "", "真实发票目录（默认取配置值）")
		outDir     = flag.String("out", "", "篡改样本输出目录（默认取配置值）")
		seed       = flag.Int64("seed", 0, "随机种子（0 取当前时间，结果不可复现）")
		verify     = flag.Bool("verify", false, "生成后按清单校验语料")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.New()
	}
	if *seed != 0 {
		cfg.Tamper.Seed = *seed
	}

	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	tamperService := service.NewTamperService(&cfg.Tamper)

	summary, err := tamperService.Generate(&service.GenerateRequest{
		Count:     *count,
		SourceDir: *realDir,
		OutputDir: *outDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "tamper generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d tampered images in %s/\n", summary.Generated, summary.OutputDir)
	if summary.Skipped > 0 {
		fmt.Printf("Skipped %d unreadable source images\n", summary.Skipped)
	}

	if *verify {
		report, err := service.NewCorpusVerifier().Verify(summary.OutputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "corpus verification failed: %v\n", err)
			os.Exit(1)
		}
		if !report.OK() {
			fmt.Fprintf(os.Stderr, "corpus verification found %d problems:\n", len(report.Problems))
			for _, problem := range report.Problems {
				fmt.Fprintf(os.Stderr, "  %s\n", problem)
			}
			os.Exit(1)
		}
		fmt.Printf("Verified %d manifest records, all valid\n", report.Valid)
	}
}
