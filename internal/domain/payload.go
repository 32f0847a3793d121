package domain

// GiftPayload 礼物分享内容
type GiftPayload struct {
	RecipientName string  `json:"recipientName" gorm:"column:recipient_name;size:100"`
	SenderName    string  `json:"senderName" gorm:"column:sender_name;size:100"`
	Message       string  `json:"message" gorm:"column:message;type:text"`
	MediaURL      string  `json:"mediaUrl" gorm:"column:media_url;size:1024"`
	MediaType     string  `json:"mediaType" gorm:"column:media_type;size:16"`
	MusicURL      string  `json:"musicUrl" gorm:"column:music_url;size:1024"`
	MusicTitle    string  `json:"musicTitle" gorm:"column:music_title;size:255"`
	MusicArtist   string  `json:"musicArtist" gorm:"column:music_artist;size:255"`
	FrameColor    string  `json:"frameColor" gorm:"column:frame_color;size:32"`
	GlassOpacity  float64 `json:"glassOpacity" gorm:"column:glass_opacity"`
}

// BlobURL 礼物的图片或视频
func (p GiftPayload) BlobURL() string {
	return p.MediaURL
}

// LetterPayload 信件分享内容
type LetterPayload struct {
	Recipient  string `json:"recipient" gorm:"column:recipient;size:100"`
	Sender     string `json:"sender" gorm:"column:sender;size:100"`
	Title      string `json:"title" gorm:"column:title;size:255"`
	Content    string `json:"content" gorm:"column:content;type:text"`
	ImageURL   string `json:"imageUrl" gorm:"column:image_url;size:1024"`
	MusicURL   string `json:"musicUrl" gorm:"column:music_url;size:1024"`
	MusicTitle string `json:"musicTitle" gorm:"column:music_title;size:255"`
	PaperStyle string `json:"paperStyle" gorm:"column:paper_style;size:32"`
	FontStyle  string `json:"fontStyle" gorm:"column:font_style;size:32"`
}

// BlobURL 信件附带的图片
func (p LetterPayload) BlobURL() string {
	return p.ImageURL
}
