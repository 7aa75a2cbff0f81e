package pipeline

import (
	"image"
	"sort"
	"strings"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-defect/model"
)

type Format string

const (
	// FormatYolov5 output is [1, N, 5+C]: cx, cy, w, h, objectness, class scores.
	FormatYolov5 Format = "yolov5"
	// FormatYolov8 output is [1, 4+C, N]: cx, cy, w, h, class scores, channel-major.
	FormatYolov8 Format = "yolov8"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatYolov5:
		return FormatYolov5, nil
	case FormatYolov8, "":
		return FormatYolov8, nil
	default:
		return "", xerrors.Errorf("unsupported model format %q", s)
	}
}

type ParseOptions struct {
	Format              Format
	Labels              []string
	InputSize           int
	FrameWidth          int
	FrameHeight         int
	ConfidenceThreshold float32
	NMSThreshold        float32
	// Allowed restricts the classes considered; nil means every class.
	Allowed map[string]bool
}

// AllowedSet builds the case-insensitive class filter used by ParseOptions.
func AllowedSet(classes []string) map[string]bool {
	if len(classes) == 0 {
		return nil
	}
	set := make(map[string]bool, len(classes))
	for _, c := range classes {
		set[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return set
}

// Parse turns the raw forward-pass output into detections in frame coordinates.
func Parse(data []float32, dims []int, opts ParseOptions) ([]model.Detection, error) {
	if len(dims) != 3 || dims[0] != 1 {
		return nil, xerrors.Errorf("unexpected output dims %v", dims)
	}
	if opts.InputSize <= 0 {
		return nil, xerrors.Errorf("invalid input size %d", opts.InputSize)
	}
	if len(data) < dims[1]*dims[2] {
		return nil, xerrors.Errorf("output has %d values, dims %v need %d", len(data), dims, dims[1]*dims[2])
	}

	var (
		detections []model.Detection
		err        error
	)
	switch opts.Format {
	case FormatYolov5:
		detections, err = parseYolov5(data, dims[1], dims[2], opts)
	case FormatYolov8:
		detections, err = parseYolov8(data, dims[1], dims[2], opts)
	default:
		return nil, xerrors.Errorf("unsupported model format %q", opts.Format)
	}
	if err != nil {
		return nil, err
	}

	return NMS(detections, opts.NMSThreshold), nil
}

func parseYolov5(data []float32, rows, stride int, opts ParseOptions) ([]model.Detection, error) {
	if stride-5 != len(opts.Labels) {
		return nil, xerrors.Errorf("model emits %d classes but %d labels are loaded", stride-5, len(opts.Labels))
	}

	var detections []model.Detection
	for i := 0; i < rows; i++ {
		row := data[i*stride : (i+1)*stride]

		objectConfidence := row[4]
		if objectConfidence < opts.ConfidenceThreshold {
			continue
		}

		classID, classConfidence := bestClass(len(opts.Labels), opts, func(c int) float32 { return row[5+c] })
		finalConf := objectConfidence * classConfidence
		if classID == -1 || finalConf < opts.ConfidenceThreshold {
			continue
		}

		detections = append(detections, model.Detection{
			ClassID:    classID,
			Label:      opts.Labels[classID],
			Confidence: finalConf,
			Box:        toFrameRect(row[0], row[1], row[2], row[3], opts),
		})
	}
	return detections, nil
}

func parseYolov8(data []float32, channels, n int, opts ParseOptions) ([]model.Detection, error) {
	if channels-4 != len(opts.Labels) {
		return nil, xerrors.Errorf("model emits %d classes but %d labels are loaded", channels-4, len(opts.Labels))
	}

	at := func(channel, i int) float32 { return data[channel*n+i] }

	var detections []model.Detection
	for i := 0; i < n; i++ {
		classID, score := bestClass(len(opts.Labels), opts, func(c int) float32 { return at(4+c, i) })
		if classID == -1 || score < opts.ConfidenceThreshold {
			continue
		}

		detections = append(detections, model.Detection{
			ClassID:    classID,
			Label:      opts.Labels[classID],
			Confidence: score,
			Box:        toFrameRect(at(0, i), at(1, i), at(2, i), at(3, i), opts),
		})
	}
	return detections, nil
}

func bestClass(numClasses int, opts ParseOptions, score func(c int) float32) (int, float32) {
	classID := -1
	classConfidence := float32(0)
	for c := 0; c < numClasses; c++ {
		if opts.Allowed != nil && !opts.Allowed[strings.ToLower(opts.Labels[c])] {
			continue
		}
		if s := score(c); s > classConfidence {
			classConfidence = s
			classID = c
		}
	}
	return classID, classConfidence
}

// toFrameRect maps a centre box in network-input pixels back onto the original frame.
func toFrameRect(cx, cy, w, h float32, opts ParseOptions) image.Rectangle {
	sx := float32(opts.FrameWidth) / float32(opts.InputSize)
	sy := float32(opts.FrameHeight) / float32(opts.InputSize)

	x0 := int((cx - w/2) * sx)
	y0 := int((cy - h/2) * sy)
	x1 := int((cx + w/2) * sx)
	y1 := int((cy + h/2) * sy)

	rect := image.Rect(x0, y0, x1, y1)
	if opts.FrameWidth > 0 && opts.FrameHeight > 0 {
		rect = rect.Intersect(image.Rect(0, 0, opts.FrameWidth, opts.FrameHeight))
	}
	return rect
}

// NMS applies class-aware non-maximum suppression. A threshold <= 0 disables it.
func NMS(detections []model.Detection, threshold float32) []model.Detection {
	if threshold <= 0 || len(detections) < 2 {
		return detections
	}

	sorted := make([]model.Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]model.Detection, 0, len(sorted))
	for _, d := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == d.ClassID && IoU(k.Box, d.Box) > threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, d)
		}
	}
	return kept
}

func IoU(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := area(inter)
	union := area(a) + area(b) - interArea
	if union <= 0 {
		return 0
	}
	return float32(interArea) / float32(union)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
