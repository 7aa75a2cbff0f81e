package config

import (
	"os"
	"strconv"
	"strings"
)

// envService reads overrides from the environment and falls back to the
// hardcoded values for anything unset or unparsable.
type envService struct {
	defaults IService
}

func NewEnv() IService {
	return &envService{
		defaults: NewHardCoded(),
	}
}

func (svc *envService) GetListenAddress() string {
	return getString("LISTEN_ADDR", svc.defaults.GetListenAddress())
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return getInt("MODE_MAX_SHUTDOWN_TIME", svc.defaults.GetModeMaxShutdownTime())
}

func (svc *envService) GetReadHeaderTimeout() int {
	return getInt("READ_HEADER_TIMEOUT", svc.defaults.GetReadHeaderTimeout())
}

func (svc *envService) GetInferenceBackend() string {
	return strings.ToLower(getString("INFERENCE_BACKEND", svc.defaults.GetInferenceBackend()))
}

func (svc *envService) GetInferenceParameters() InferenceParameters {
	p := svc.defaults.GetInferenceParameters()
	p.ModelPath = getString("MODEL_PATH", p.ModelPath)
	p.LabelsPath = getString("LABELS_PATH", p.LabelsPath)
	p.Format = strings.ToLower(getString("MODEL_FORMAT", p.Format))
	p.InputSize = getInt("MODEL_INPUT_SIZE", p.InputSize)
	p.ConfidenceThreshold = getFloat32("CONFIDENCE_THRESHOLD", p.ConfidenceThreshold)
	p.NMSThreshold = getFloat32("NMS_THRESHOLD", p.NMSThreshold)
	p.Workers = getInt("INFERENCE_WORKERS", p.Workers)
	p.AllowedClasses = getList("ALLOWED_CLASSES", p.AllowedClasses)
	return p
}

func (svc *envService) GetDetectDefectKeywords() []string {
	return getList("DETECT_DEFECT_KEYWORDS", svc.defaults.GetDetectDefectKeywords())
}

func (svc *envService) GetUploadDefectKeywords() []string {
	return getList("UPLOAD_DEFECT_KEYWORDS", svc.defaults.GetUploadDefectKeywords())
}

func (svc *envService) GetUploadMaxFiles() int {
	return getInt("UPLOAD_MAX_FILES", svc.defaults.GetUploadMaxFiles())
}

func (svc *envService) GetUploadIsolateFailures() bool {
	return getBool("UPLOAD_ISOLATE_FAILURES", svc.defaults.GetUploadIsolateFailures())
}

func (svc *envService) GetMaxUploadBytes() int64 {
	v, ok := os.LookupEnv("MAX_UPLOAD_BYTES")
	if !ok {
		return svc.defaults.GetMaxUploadBytes()
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n <= 0 {
		return svc.defaults.GetMaxUploadBytes()
	}
	return n
}

func (svc *envService) GetCorsAllowedOrigin() string {
	return getString("CORS_ALLOWED_ORIGIN", svc.defaults.GetCorsAllowedOrigin())
}

func (svc *envService) GetLogLevel() string {
	return getString("LOG_LEVEL", svc.defaults.GetLogLevel())
}

func (svc *envService) GetLogFormat() string {
	return strings.ToLower(getString("LOG_FORMAT", svc.defaults.GetLogFormat()))
}

func (svc *envService) GetLogFile() string {
	return getString("LOG_FILE", svc.defaults.GetLogFile())
}

// An explicitly empty DETECTIONS_LOG_FILE disables the journal.
func (svc *envService) GetDetectionsLogFile() string {
	if v, ok := os.LookupEnv("DETECTIONS_LOG_FILE"); ok {
		return strings.TrimSpace(v)
	}
	return svc.defaults.GetDetectionsLogFile()
}

func (svc *envService) GetScanFolder() string {
	return getString("SCAN_FOLDER", svc.defaults.GetScanFolder())
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getFloat32(key string, def float32) float32 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil || f < 0 || f > 1 {
		return def
	}
	return float32(f)
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
