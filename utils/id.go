package utils

import (
	"time"
)

// GenerateID 生成基于时间戳的ID，用于上传文件落盘命名
func GenerateID() int64 {
	return time.Now().UnixNano()
}
