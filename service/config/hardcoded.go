package config

type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetListenAddress() string {
	// Same port the dashboard posts to.
	return ":5000"
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return 5
}

func (svc *hardcodedService) GetReadHeaderTimeout() int {
	return 10
}

func (svc *hardcodedService) GetInferenceBackend() string {
	return "yolo"
}

func (svc *hardcodedService) GetInferenceParameters() InferenceParameters {
	return InferenceParameters{
		ModelPath:           "./models/yolov8n.onnx",
		LabelsPath:          "./models/coco.names",
		Format:              "yolov8",
		InputSize:           640,
		ConfidenceThreshold: 0.25,
		NMSThreshold:        0.45,
		Workers:             2,
		AllowedClasses:      nil,
	}
}

// The two endpoints deliberately keep different keyword sets.
func (svc *hardcodedService) GetDetectDefectKeywords() []string {
	return []string{"crack", "leak"}
}

func (svc *hardcodedService) GetUploadDefectKeywords() []string {
	return []string{"crack", "defect", "broken"}
}

func (svc *hardcodedService) GetUploadMaxFiles() int {
	return 10
}

func (svc *hardcodedService) GetUploadIsolateFailures() bool {
	return false
}

func (svc *hardcodedService) GetMaxUploadBytes() int64 {
	return 32 << 20
}

func (svc *hardcodedService) GetCorsAllowedOrigin() string {
	return "*"
}

func (svc *hardcodedService) GetLogLevel() string {
	return "info"
}

func (svc *hardcodedService) GetLogFormat() string {
	return "color"
}

func (svc *hardcodedService) GetLogFile() string {
	return ""
}

func (svc *hardcodedService) GetDetectionsLogFile() string {
	return "./logs/detections.log"
}

func (svc *hardcodedService) GetScanFolder() string {
	return "./samples"
}
