package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"time"

	"github.com/joshi-parwaaz/invoice-fraud-detector/config"
	"github.com/joshi-parwaaz/invoice-fraud-detector/model"
	"github.com/joshi-parwaaz/invoice-fraud-detector/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var ErrModelNotLoaded = errors.New("model checkpoint not loaded")

// InferenceService 负责加载分类器权重并对单张发票打分
type InferenceService struct {
	net          gocv.Net
	inputSize    int
	threshold    float64
	semaphore    chan struct{}
	queueTimeout time.Duration
}

// NewInferenceService 加载 ONNX 格式的分类器权重
func NewInferenceService(cfg *config.InferenceConfig) (*InferenceService, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to parse %s", ErrModelNotLoaded, cfg.ModelPath)
	}

	return &InferenceService{
		net:          net,
		inputSize:    cfg.InputSize,
		threshold:    cfg.Threshold,
		semaphore:    make(chan struct{}, cfg.MaxConcurrent),
		queueTimeout: time.Duration(cfg.QueueTimeout) * time.Second,
	}, nil
}

// Predict 对图片打分并按阈值给出 real / tampered 标签
func (s *InferenceService) Predict(imagePath string, md5 string) (*model.Prediction, error) {
	// 并发控制
	ctx, cancel := context.WithTimeout(context.Background(), s.queueTimeout)
	defer cancel()

	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-ctx.Done():
		return nil, fmt.Errorf("推理队列已满，请稍后重试")
	}

	startTime := time.Now()

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("failed to read image")
	}
	defer img.Close()

	width := img.Cols()
	height := img.Rows()

	// 与训练端一致：缩放到固定输入尺寸，像素归一化到 [0,1]，BGR 转 RGB
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(s.inputSize, s.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	out := s.net.Forward("")
	defer out.Close()

	prob := sigmoid(float64(out.GetFloatAt(0, 0)))
	label := labelFor(prob, s.threshold)

	utils.Logger.Info("inference complete",
		zap.String("md5", md5),
		zap.String("label", label),
		zap.Float64("probability", prob),
		zap.Duration("duration", time.Since(startTime)))

	return &model.Prediction{
		MD5:         md5,
		Label:       label,
		Probability: prob,
		Width:       width,
		Height:      height,
		Timestamp:   time.Now().Unix(),
	}, nil
}

func (s *InferenceService) Close() error {
	return s.net.Close()
}

// sigmoid 将单 logit 输出映射到 (0,1)
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// labelFor 按阈值二分类
func labelFor(prob, threshold float64) string {
	if prob > threshold {
		return "tampered"
	}
	return "real"
}
