package inference

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-defect/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestFakeReportsLabels(t *testing.T) {
	svc := NewFake("person", "crack")
	defer svc.Close()

	dets, err := svc.Detect(context.Background(), pngBytes(t, 8, 6))
	require.NoError(t, err)
	require.Len(t, dets, 2)
	require.Equal(t, "crack", dets[1].Label)
	require.Equal(t, image.Rect(0, 0, 8, 6), dets[1].Box)
	require.Equal(t, []string{"person", "crack"}, svc.Labels())
	require.Equal(t, "fake", svc.Name())
}

func TestFakeRejectsUndecodableBuffer(t *testing.T) {
	svc := NewFake("person")

	_, err := svc.Detect(context.Background(), []byte("definitely not an image"))
	require.ErrorIs(t, err, model.ErrInvalidImage)

	_, err = svc.Detect(context.Background(), nil)
	require.ErrorIs(t, err, model.ErrInvalidImage)
}

func TestFakeFuncPropagatesErrors(t *testing.T) {
	boom := errors.New("model crashed")
	svc := NewFakeFunc(func(_ []byte) ([]string, error) { return nil, boom })

	_, err := svc.Detect(context.Background(), pngBytes(t, 2, 2))
	require.ErrorIs(t, err, boom)
}

func TestFakeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFake("person").Detect(ctx, pngBytes(t, 2, 2))
	require.ErrorIs(t, err, context.Canceled)
}
