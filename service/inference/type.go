package inference

import (
	"context"

	"github.com/khaledhikmat/vs-defect/model"
)

// IService decodes an image buffer and runs one forward pass of the detection model.
// Implementations must be safe for concurrent use. A buffer that cannot be decoded
// yields an error wrapping model.ErrInvalidImage.
type IService interface {
	Name() string
	Detect(ctx context.Context, imageData []byte) ([]model.Detection, error)
	Labels() []string
	Close() error
}
