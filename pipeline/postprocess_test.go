package pipeline

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-defect/model"
)

// yolov8 layout, channel-major: cx, cy, w, h, person, crack, car for 3 candidates.
var yolov8Output = []float32{
	100, 102, 400,
	100, 101, 300,
	50, 50, 100,
	50, 50, 80,
	0.9, 0.8, 0,
	0.1, 0, 0.6,
	0, 0, 0,
}

func yolov8Options() ParseOptions {
	return ParseOptions{
		Format:              FormatYolov8,
		Labels:              []string{"person", "crack", "car"},
		InputSize:           640,
		FrameWidth:          640,
		FrameHeight:         640,
		ConfidenceThreshold: 0.25,
		NMSThreshold:        0.45,
	}
}

func TestParseYolov8(t *testing.T) {
	dets, err := Parse(yolov8Output, []int{1, 7, 3}, yolov8Options())
	require.NoError(t, err)
	require.Len(t, dets, 2)

	require.Equal(t, "person", dets[0].Label)
	require.Equal(t, 0, dets[0].ClassID)
	require.InDelta(t, 0.9, dets[0].Confidence, 1e-6)
	require.Equal(t, image.Rect(75, 75, 125, 125), dets[0].Box)

	require.Equal(t, "crack", dets[1].Label)
	require.InDelta(t, 0.6, dets[1].Confidence, 1e-6)
	require.Equal(t, image.Rect(350, 260, 450, 340), dets[1].Box)
}

func TestParseYolov8ScalesToFrame(t *testing.T) {
	opts := yolov8Options()
	opts.FrameWidth = 1280
	opts.FrameHeight = 960

	dets, err := Parse(yolov8Output, []int{1, 7, 3}, opts)
	require.NoError(t, err)
	require.Equal(t, image.Rect(150, 112, 250, 187), dets[0].Box)
}

func TestParseYolov8AllowedClasses(t *testing.T) {
	opts := yolov8Options()
	opts.Allowed = AllowedSet([]string{"Crack"})

	dets, err := Parse(yolov8Output, []int{1, 7, 3}, opts)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	require.Equal(t, "crack", dets[0].Label)
}

func TestParseYolov8WithoutNMSKeepsOverlaps(t *testing.T) {
	opts := yolov8Options()
	opts.NMSThreshold = 0

	dets, err := Parse(yolov8Output, []int{1, 7, 3}, opts)
	require.NoError(t, err)
	require.Len(t, dets, 3)
	require.Equal(t, []string{"person", "person", "crack"}, Labels(dets))
}

func TestParseYolov5(t *testing.T) {
	data := []float32{
		320, 320, 64, 64, 0.9, 0.2, 0.95,
		100, 100, 10, 10, 0.1, 0.9, 0.1,
	}
	opts := ParseOptions{
		Format:              FormatYolov5,
		Labels:              []string{"person", "crack"},
		InputSize:           640,
		FrameWidth:          640,
		FrameHeight:         480,
		ConfidenceThreshold: 0.25,
		NMSThreshold:        0.45,
	}

	dets, err := Parse(data, []int{1, 2, 7}, opts)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	require.Equal(t, "crack", dets[0].Label)
	require.InDelta(t, 0.855, dets[0].Confidence, 1e-4)
	require.Equal(t, image.Rect(288, 216, 352, 264), dets[0].Box)
}

func TestParseRejectsBadShapes(t *testing.T) {
	_, err := Parse(yolov8Output, []int{7, 3}, yolov8Options())
	require.Error(t, err)

	_, err = Parse(yolov8Output[:10], []int{1, 7, 3}, yolov8Options())
	require.Error(t, err)

	opts := yolov8Options()
	opts.Labels = []string{"person"}
	_, err = Parse(yolov8Output, []int{1, 7, 3}, opts)
	require.Error(t, err)

	opts = yolov8Options()
	opts.Format = "ssd"
	_, err = Parse(yolov8Output, []int{1, 7, 3}, opts)
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YOLOv5")
	require.NoError(t, err)
	require.Equal(t, FormatYolov5, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatYolov8, f)

	_, err = ParseFormat("detr")
	require.Error(t, err)
}

func TestNMSIsClassAware(t *testing.T) {
	box := image.Rect(0, 0, 10, 10)
	dets := []model.Detection{
		{ClassID: 0, Label: "person", Confidence: 0.5, Box: box},
		{ClassID: 1, Label: "crack", Confidence: 0.7, Box: box},
		{ClassID: 0, Label: "person", Confidence: 0.9, Box: box},
	}

	kept := NMS(dets, 0.5)
	require.Len(t, kept, 2)
	require.Equal(t, "person", kept[0].Label)
	require.InDelta(t, 0.9, kept[0].Confidence, 1e-6)
	require.Equal(t, "crack", kept[1].Label)
}

func TestIoU(t *testing.T) {
	require.InDelta(t, 1.0, IoU(image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 10)), 1e-6)
	require.Zero(t, IoU(image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30)))
	require.InDelta(t, 25.0/175.0, IoU(image.Rect(0, 0, 10, 10), image.Rect(5, 5, 15, 15)), 1e-6)
}
