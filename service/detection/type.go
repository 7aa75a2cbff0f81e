package detection

import (
	"context"

	"github.com/khaledhikmat/vs-defect/model"
)

// IService runs the decode → infer → reduce pipeline behind both endpoints.
// Returned errors are always *model.DetectError.
type IService interface {
	// Detect handles one image; objects are deduplicated and checked against the detect keywords.
	Detect(ctx context.Context, upload *model.Upload) (model.DetectResult, error)
	// Scan is Detect for files read from disk; it is counted and journaled separately.
	Scan(ctx context.Context, upload *model.Upload) (model.DetectResult, error)
	// DetectBatch handles up to the configured number of images; per-detection labels are kept.
	DetectBatch(ctx context.Context, uploads []model.Upload) (model.BatchResult, error)
	Labels() []string
	Stats() model.DetectorStats
}
