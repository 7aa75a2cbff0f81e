package journal

import (
	"context"

	"github.com/khaledhikmat/vs-defect/model"
)

// IService appends one JSON line per processed image.
type IService interface {
	Record(ctx context.Context, entry model.JournalEntry) error
	Close() error
}
