package model

// Prediction 单张发票的推理结果
type Prediction struct {
	MD5         string  `json:"md5"`
	Label       string  `json:"label"` // real, tampered
	Probability float64 `json:"probability"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Timestamp   int64   `json:"timestamp"`
}

// TamperSummary 一次批量生成的汇总
type TamperSummary struct {
	Requested int    `json:"requested"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	OutputDir string `json:"output_dir"`
	Seed      int64  `json:"seed"`
}

// ManifestRecord 篡改图片的溯源记录
type ManifestRecord struct {
	Index    int    `json:"index"`
	Source   string `json:"source"`
	Operator string `json:"operator"`
	Output   string `json:"output"`
}

// UploadResponse 上传响应
type UploadResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *Prediction `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
