package inference

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-defect/model"
)

// DetectFunc scripts the labels the fake model reports for a decoded buffer.
type DetectFunc func(imageData []byte) ([]string, error)

type fakeService struct {
	labels []string
	fn     DetectFunc
}

// NewFake reports the given labels, one detection each, for every decodable image.
func NewFake(labels ...string) IService {
	return &fakeService{
		labels: labels,
		fn: func(_ []byte) ([]string, error) {
			return labels, nil
		},
	}
}

func NewFakeFunc(fn DetectFunc) IService {
	return &fakeService{
		fn: fn,
	}
}

func (svc *fakeService) Name() string {
	return "fake"
}

func (svc *fakeService) Detect(ctx context.Context, imageData []byte) ([]model.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return nil, xerrors.Errorf("decoding %d bytes (%v): %w", len(imageData), err, model.ErrInvalidImage)
	}

	labels, err := svc.fn(imageData)
	if err != nil {
		return nil, err
	}

	detections := make([]model.Detection, 0, len(labels))
	for i, l := range labels {
		detections = append(detections, model.Detection{
			ClassID:    i,
			Label:      l,
			Confidence: 0.9,
			Box:        image.Rect(0, 0, cfg.Width, cfg.Height),
		})
	}
	return detections, nil
}

func (svc *fakeService) Labels() []string {
	return append([]string(nil), svc.labels...)
}

func (svc *fakeService) Close() error {
	return nil
}
