package model

type ExportScope string

const (
	ExportScopeUser ExportScope = "user"
	ExportScopeAll  ExportScope = "all"
)

type ExportStatus string

const (
	ExportPending ExportStatus = "pending"
	ExportRunning ExportStatus = "running"
	ExportSuccess ExportStatus = "success"
	ExportFailure ExportStatus = "failure"
)

// ExportJob CSV 导出任务
type ExportJob struct {
	UUIDBase
	UserID      uint         `gorm:"index;not null" json:"user_id"`
	Scope       ExportScope  `gorm:"size:10;not null" json:"scope"`
	Status      ExportStatus `gorm:"size:10;not null;default:'pending'" json:"status"`
	FileName    string       `gorm:"size:255" json:"file_name"`
	DownloadURL string       `gorm:"size:512" json:"download_url"`
	Error       string       `gorm:"size:512" json:"error,omitempty"`
}

func (ExportJob) TableName() string {
	return "export_jobs"
}
