package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshi-parwaaz/invoice-fraud-detector/config"
	"github.com/joshi-parwaaz/invoice-fraud-detector/model"
	"github.com/joshi-parwaaz/invoice-fraud-detector/service"
	"github.com/joshi-parwaaz/invoice-fraud-detector/utils"
	"go.uber.org/zap"
)

type UploadHandler struct {
	cfg              *config.Config
	redisService     *service.RedisService
	inferenceService *service.InferenceService
}

func NewUploadHandler(cfg *config.Config, redis *service.RedisService, inference *service.InferenceService) *UploadHandler {
	return &UploadHandler{
		cfg:              cfg,
		redisService:     redis,
		inferenceService: inference,
	}
}

// Upload 处理发票上传并返回真伪判定
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传发票图片",
			Error:   err.Error(),
		})
		return
	}

	// 验证文件大小
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	// 验证文件类型
	contentType := file.Header.Get("Content-Type")
	if !h.isAllowedType(contentType) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的文件类型，仅支持 JPEG/PNG",
		})
		return
	}

	// 生成文件名
	ext := filepath.Ext(file.Filename)
	filename := fmt.Sprintf("%d%s", utils.GenerateID(), ext)
	savePath := filepath.Join(h.cfg.Upload.UploadDir, filename)

	// 保存文件
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		utils.Logger.Error("failed to save file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "保存文件失败",
			Error:   err.Error(),
		})
		return
	}

	// 计算MD5
	md5, err := utils.FileMD5(savePath)
	if err != nil {
		utils.Logger.Error("failed to calculate md5", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "计算文件哈希失败",
			Error:   err.Error(),
		})
		return
	}

	// 确保文件在处理完成后被删除（如果配置启用）
	if h.cfg.Inference.CleanupTempFiles {
		defer func() {
			if err := os.Remove(savePath); err != nil {
				utils.Logger.Warn("failed to delete temp file",
					zap.String("file", savePath),
					zap.Error(err))
			} else {
				utils.Logger.Debug("temp file deleted",
					zap.String("file", savePath))
			}
		}()
	}

	utils.Logger.Info("file uploaded",
		zap.String("filename", filename),
		zap.String("md5", md5),
		zap.Int64("size", file.Size))

	// 检查缓存
	ctx := context.Background()
	cachedResult, err := h.redisService.GetPrediction(ctx, md5)
	if err != nil {
		utils.Logger.Warn("failed to get cache", zap.Error(err))
	}

	if cachedResult != nil {
		utils.Logger.Info("cache hit", zap.String("md5", md5))
		c.JSON(http.StatusOK, model.UploadResponse{
			Success: true,
			Message: "检测成功（来自缓存）",
			Data:    cachedResult,
		})
		return
	}

	// 推理
	result, err := h.inferenceService.Predict(savePath, md5)
	if err != nil {
		utils.Logger.Error("failed to run inference", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "发票检测失败",
			Error:   err.Error(),
		})
		return
	}

	// 保存到缓存
	if err := h.redisService.SetPrediction(ctx, md5, result); err != nil {
		utils.Logger.Warn("failed to set cache", zap.Error(err))
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: "检测成功",
		Data:    result,
	})
}

// GetByMD5 根据MD5查询历史检测结果
func (h *UploadHandler) GetByMD5(c *gin.Context) {
	md5 := c.Param("md5")
	if md5 == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "MD5参数缺失",
		})
		return
	}

	ctx := context.Background()
	result, err := h.redisService.GetPrediction(ctx, md5)
	if err != nil {
		utils.Logger.Error("failed to get prediction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "查询失败",
			Error:   err.Error(),
		})
		return
	}

	if result == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Message: "未找到该图片的检测记录",
		})
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: "查询成功",
		Data:    result,
	})
}

func (h *UploadHandler) isAllowedType(contentType string) bool {
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}
