package service

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshi-parwaaz/invoice-fraud-detector/model"
	"gocv.io/x/gocv"
)

// CorpusVerifier 负责校验生成的篡改语料
type CorpusVerifier struct{}

func NewCorpusVerifier() *CorpusVerifier {
	return &CorpusVerifier{}
}

// VerifyReport 语料校验结果
type VerifyReport struct {
	Records  int      `json:"records"`
	Valid    int      `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// OK 语料非空且全部记录通过校验
func (r *VerifyReport) OK() bool {
	return r.Records > 0 && len(r.Problems) == 0
}

// Verify 逐条核对清单记录：输出可解码、尺寸与源图一致、且至少一个像素被改动
func (v *CorpusVerifier) Verify(outputDir string) (*VerifyReport, error) {
	f, err := os.Open(filepath.Join(outputDir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	report := &VerifyReport{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record model.ManifestRecord
		if err := json.Unmarshal(line, &record); err != nil {
			report.Problems = append(report.Problems, fmt.Sprintf("manifest: malformed record: %v", err))
			continue
		}

		report.Records++
		if problem := v.checkRecord(outputDir, &record); problem != "" {
			report.Problems = append(report.Problems, problem)
			continue
		}
		report.Valid++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return report, nil
}

func (v *CorpusVerifier) checkRecord(outputDir string, record *model.ManifestRecord) string {
	out := gocv.IMRead(filepath.Join(outputDir, record.Output), gocv.IMReadColor)
	if out.Empty() {
		return fmt.Sprintf("%s: output missing or undecodable", record.Output)
	}
	defer out.Close()

	src := gocv.IMRead(record.Source, gocv.IMReadColor)
	if src.Empty() {
		return fmt.Sprintf("%s: source %s missing or undecodable", record.Output, record.Source)
	}
	defer src.Close()

	if out.Cols() != src.Cols() || out.Rows() != src.Rows() {
		return fmt.Sprintf("%s: dimensions %dx%d differ from source %dx%d",
			record.Output, out.Cols(), out.Rows(), src.Cols(), src.Rows())
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(src, out, &diff)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray)

	if gocv.CountNonZero(gray) == 0 {
		return fmt.Sprintf("%s: identical to source, perturbation was a no-op", record.Output)
	}

	return ""
}
