package config

type InferenceParameters struct {
	ModelPath           string
	LabelsPath          string
	Format              string
	InputSize           int
	ConfidenceThreshold float32
	NMSThreshold        float32
	Workers             int
	AllowedClasses      []string
}

type IService interface {
	GetListenAddress() string
	GetModeMaxShutdownTime() int
	GetReadHeaderTimeout() int
	GetInferenceBackend() string
	GetInferenceParameters() InferenceParameters
	GetDetectDefectKeywords() []string
	GetUploadDefectKeywords() []string
	GetUploadMaxFiles() int
	GetUploadIsolateFailures() bool
	GetMaxUploadBytes() int64
	GetCorsAllowedOrigin() string
	GetLogLevel() string
	GetLogFormat() string
	GetLogFile() string
	GetDetectionsLogFile() string
	GetScanFolder() string
}
