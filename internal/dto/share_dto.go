// Package dto HTTP 请求与响应结构
package dto

import "time"

// GiftSubmitRequest 创建礼物分享请求
type GiftSubmitRequest struct {
	RecipientName string  `json:"recipientName" form:"recipientName" binding:"required,max=100"`
	SenderName    string  `json:"senderName" form:"senderName" binding:"max=100"`
	Message       string  `json:"message" form:"message" binding:"required,max=5000"`
	MediaURL      string  `json:"mediaUrl" form:"mediaUrl" binding:"max=1024,mediaurl"`
	MediaType     string  `json:"mediaType" form:"mediaType" binding:"omitempty,oneof=image video"`
	MusicURL      string  `json:"musicUrl" form:"musicUrl" binding:"max=1024,mediaurl"`
	MusicTitle    string  `json:"musicTitle" form:"musicTitle" binding:"max=255"`
	MusicArtist   string  `json:"musicArtist" form:"musicArtist" binding:"max=255"`
	FrameColor    string  `json:"frameColor" form:"frameColor" binding:"max=32"`
	GlassOpacity  float64 `json:"glassOpacity" form:"glassOpacity" binding:"gte=0,lte=1"`
}

// LetterSubmitRequest 创建信件分享请求
type LetterSubmitRequest struct {
	Recipient  string `json:"recipient" form:"recipient" binding:"required,max=100"`
	Sender     string `json:"sender" form:"sender" binding:"max=100"`
	Title      string `json:"title" form:"title" binding:"max=255"`
	Content    string `json:"content" form:"content" binding:"required,max=20000"`
	ImageURL   string `json:"imageUrl" form:"imageUrl" binding:"max=1024,mediaurl"`
	MusicURL   string `json:"musicUrl" form:"musicUrl" binding:"max=1024,mediaurl"`
	MusicTitle string `json:"musicTitle" form:"musicTitle" binding:"max=255"`
	PaperStyle string `json:"paperStyle" form:"paperStyle" binding:"max=32"`
	FontStyle  string `json:"fontStyle" form:"fontStyle" binding:"max=32"`
}

// ShareQueryRequest 打开分享请求
type ShareQueryRequest struct {
	Token string `json:"token" form:"token" binding:"required,sharetoken"`
}

// ShareCreatedResponse 创建分享响应
type ShareCreatedResponse struct {
	Token         string    `json:"token"`
	ShareURL      string    `json:"shareUrl"`
	ExpiresAt     time.Time `json:"expiresAt"`
	RetentionDays int       `json:"retentionDays"`
	AccessLimit   int64     `json:"accessLimit"` // -1 表示不限次数
	Tier          string    `json:"tier"`
}

// ShareViewResponse 打开分享响应
type ShareViewResponse[P any] struct {
	Payload         P         `json:"payload"`
	ExpiresAt       time.Time `json:"expiresAt"`
	AccessLimit     int64     `json:"accessLimit"`
	AccessRemaining int64     `json:"accessRemaining"` // -1 表示不限次数
}

// ArtifactHealth 单个分享类型的状态
type ArtifactHealth struct {
	Live             int64 `json:"live"`
	PendingDeletions int   `json:"pendingDeletions"`
}

// ProcessHealth 进程资源占用
type ProcessHealth struct {
	CPUPercent   float64 `json:"cpuPercent"`
	RSSBytes     uint64  `json:"rssBytes"`
	Goroutines   int     `json:"goroutines"`
	HostMemUsed  float64 `json:"hostMemUsedPercent"`
	WorkerActive int64   `json:"workerActive"`
	WorkerQueued int     `json:"workerQueued"`
	WorkerFailed int64   `json:"workerFailed"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string                    `json:"status"` // healthy / unhealthy
	Version   string                    `json:"version"`
	Uptime    float64                   `json:"uptime"` // 秒
	Database  string                    `json:"database"`
	Artifacts map[string]ArtifactHealth `json:"artifacts,omitempty"`
	Process   *ProcessHealth            `json:"process,omitempty"`
}
