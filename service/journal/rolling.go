package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-defect/model"
	"github.com/khaledhikmat/vs-defect/service/config"
)

type rollingService struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
}

// NewRolling writes the journal to the configured detections log, or discards
// entries when no file is configured.
func NewRolling(cfgSvc config.IService) IService {
	filename := cfgSvc.GetDetectionsLogFile()
	if filename == "" {
		return NewNoop()
	}

	return &rollingService{
		writer: &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     7,    // days
			Compress:   true, // compress old logs
		},
	}
}

func (svc *rollingService) Record(ctx context.Context, entry model.JournalEntry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().Format(time.RFC3339)
	}
	if entry.RequestID == "" {
		entry.RequestID = model.RequestID(ctx)
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return xerrors.Errorf("marshaling journal entry: %w", err)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if _, err := svc.writer.Write(append(jsonData, '\n')); err != nil {
		return xerrors.Errorf("writing journal entry: %w", err)
	}
	return nil
}

func (svc *rollingService) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.writer.Close()
}

type noopService struct{}

func NewNoop() IService {
	return noopService{}
}

func (noopService) Record(_ context.Context, _ model.JournalEntry) error {
	return nil
}

func (noopService) Close() error {
	return nil
}
