package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/joshi-parwaaz/invoice-fraud-detector/config"
	"github.com/joshi-parwaaz/invoice-fraud-detector/model"
	"github.com/joshi-parwaaz/invoice-fraud-detector/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	ErrMissingSourceDir = errors.New("source directory does not exist or is unreadable")
	ErrNoSourceImages   = errors.New("no source images available")
)

// PerturbationError 单张源图解码或篡改后回写失败
type PerturbationError struct {
	Path     string
	Operator string
	Err      error
}

func (e *PerturbationError) Error() string {
	if e.Operator != "" {
		return fmt.Sprintf("perturbation failed for %s (operator %s): %v", e.Path, e.Operator, e.Err)
	}
	return fmt.Sprintf("perturbation failed for %s: %v", e.Path, e.Err)
}

func (e *PerturbationError) Unwrap() error {
	return e.Err
}

// GenerateRequest 一次批量生成请求，零值字段回退到配置默认
type GenerateRequest struct {
	Count     int
	SourceDir string
	OutputDir string
}

// TamperService 负责批量生成篡改样本
type TamperService struct {
	cfg      *config.TamperConfig
	selector *OperatorSelector
	rng      *rand.Rand
	seed     int64
}

// NewTamperService 创建生成服务；seed 为 0 时取当前时间
func NewTamperService(cfg *config.TamperConfig) *TamperService {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &TamperService{
		cfg:      cfg,
		selector: NewOperatorSelector(NewPerturbationSet(cfg)),
		rng:      rand.New(rand.NewSource(seed)),
		seed:     seed,
	}
}

// Generate 从真实发票目录无放回抽取 min(N, 可用张数) 张源图，
// 每张套用一个均匀随机选出的篡改算子后写为 tampered_<i>.jpg。
// 同一输出目录不可并发生成，序号会互相覆盖，需调用方自行协调
func (s *TamperService) Generate(req *GenerateRequest) (*model.TamperSummary, error) {
	count := req.Count
	if count <= 0 {
		count = s.cfg.Count
	}
	sourceDir := req.SourceDir
	if sourceDir == "" {
		sourceDir = s.cfg.RealDir
	}
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = s.cfg.TamperedDir
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingSourceDir, err)
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == manifestName {
			continue
		}
		sources = append(sources, entry.Name())
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSourceImages, sourceDir)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	k := count
	if k > len(sources) {
		k = len(sources)
	}
	// 无放回抽样
	perm := s.rng.Perm(len(sources))[:k]

	startIndex := 0
	if s.cfg.Additive {
		startIndex = nextFreeIndex(outputDir)
	}

	startTime := time.Now()
	generated := 0
	skipped := 0
	records := make([]model.ManifestRecord, 0, k)

	for _, idx := range perm {
		srcPath := filepath.Join(sourceDir, sources[idx])
		outIndex := startIndex + generated
		outName := fmt.Sprintf("tampered_%d.jpg", outIndex)

		opName, err := s.tamperImage(srcPath, filepath.Join(outputDir, outName))
		if err != nil {
			if s.cfg.SkipUnreadable {
				skipped++
				utils.Logger.Warn("skipping unreadable source image",
					zap.String("source", srcPath),
					zap.Error(err))
				continue
			}
			return nil, err
		}

		records = append(records, model.ManifestRecord{
			Index:    outIndex,
			Source:   srcPath,
			Operator: opName,
			Output:   outName,
		})
		generated++
	}

	if s.cfg.WriteManifest {
		if err := writeManifest(outputDir, records, s.cfg.Additive); err != nil {
			utils.Logger.Warn("failed to write manifest", zap.Error(err))
		}
	}

	summary := &model.TamperSummary{
		Requested: count,
		Generated: generated,
		Skipped:   skipped,
		OutputDir: outputDir,
		Seed:      s.seed,
	}

	utils.Logger.Info("tamper generation complete",
		zap.Int("requested", count),
		zap.Int("generated", generated),
		zap.Int("skipped", skipped),
		zap.String("output_dir", outputDir),
		zap.Int64("seed", s.seed),
		zap.Duration("duration", time.Since(startTime)))

	return summary, nil
}

// tamperImage 解码源图、套用一个算子、按配置质量编码为 JPEG
func (s *TamperService) tamperImage(srcPath, dstPath string) (string, error) {
	img := gocv.IMRead(srcPath, gocv.IMReadColor)
	if img.Empty() {
		return "", &PerturbationError{Path: srcPath, Err: errors.New("failed to decode image")}
	}
	defer img.Close()

	op := s.selector.Pick(s.rng)
	op.Apply(&img, s.rng)

	params := []int{gocv.IMWriteJpegQuality, s.cfg.JPEGQuality}
	if ok := gocv.IMWriteWithParams(dstPath, img, params); !ok {
		return "", &PerturbationError{Path: srcPath, Operator: op.Name, Err: errors.New("failed to encode tampered image")}
	}

	return op.Name, nil
}

const manifestName = "manifest.jsonl"

var tamperedPattern = regexp.MustCompile(`^tampered_(\d+)\.jpg$`)

// nextFreeIndex 扫描已有输出，返回下一个可用序号
func nextFreeIndex(outputDir string) int {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return 0
	}

	next := 0
	for _, entry := range entries {
		m := tamperedPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n+1 > next {
			next = n + 1
		}
	}
	return next
}

// writeManifest 将溯源记录写为 JSON Lines；非增量模式下整体重写
func writeManifest(outputDir string, records []model.ManifestRecord, additive bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if additive {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := os.OpenFile(filepath.Join(outputDir, manifestName), flags, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return nil
}
