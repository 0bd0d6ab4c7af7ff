package util

const (
	DateFormat     = "2006-01-02"
	TimeFormat     = "2006-01-02 15:04:05"
	MinuteFormat   = "2006-01-02 15:04"
	ReportFormat   = "02-01-2006 03:04:05 PM MST"
	ExportFileTime = "20060102_150405"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeCSV = "text/csv"
)

// 最近活动条数
const RecentActivityLimit = 8
