package model

import (
	"fmt"
	"image"
	"runtime/debug"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Upload is one image buffer received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// Detection is a single box produced by the model for one frame.
type Detection struct {
	ClassID    int             `json:"classId"`
	Label      string          `json:"label"`
	Confidence float32         `json:"confidence"`
	Box        image.Rectangle `json:"box"`
}

type DetectResult struct {
	Objects []string `json:"objects"`
	Defect  bool     `json:"defect"`
}

type BatchItem struct {
	Filename string    `json:"filename"`
	Objects  []string  `json:"objects"`
	Defect   bool      `json:"defect"`
	Error    string    `json:"error,omitempty"`
	Kind     ErrorKind `json:"kind,omitempty"`
}

type BatchResult struct {
	Results []BatchItem `json:"results"`
}

const (
	EndpointDetect = "detect"
	EndpointUpload = "upload"
	EndpointScan   = "scan"
)

// JournalEntry is one line of the detections journal.
type JournalEntry struct {
	Timestamp  string      `json:"time"`
	RequestID  string      `json:"requestId,omitempty"`
	Endpoint   string      `json:"endpoint"`
	Filename   string      `json:"filename,omitempty"`
	Objects    []string    `json:"objects"`
	Defect     bool        `json:"defect"`
	Detections []Detection `json:"detections,omitempty"`
	DurationMs float64     `json:"durationMs"`
	Error      string      `json:"error,omitempty"`
}

type DetectorStats struct {
	Name        string            `json:"name"`
	Backend     string            `json:"backend"`
	Requests    map[string]int    `json:"requests"`
	Images      int               `json:"images"`
	Defects     int               `json:"defects"`
	Errors      map[ErrorKind]int `json:"errors"`
	AvgProcTime float64           `json:"avgProcTime"`
	Uptime      int64             `json:"uptime"`
	Timestamp   int64             `json:"timestamp"`
}
