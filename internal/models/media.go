package models

// MediaAsset records one uploaded file, wherever it is stored.
type MediaAsset struct {
	Base
	FileName     string `json:"file_name"     gorm:"size:191;not null"`
	OriginalName string `json:"original_name" gorm:"size:255"`
	URL          string `json:"url"           gorm:"size:512;not null"`
	MimeType     string `json:"mime_type"     gorm:"size:127"`
	Size         int64  `json:"size"`
	Storage      string `json:"storage"       gorm:"size:16;default:local"`
	UploadedBy   string `json:"uploaded_by"   gorm:"size:191;index"`
}

func (MediaAsset) TableName() string { return "media_assets" }
