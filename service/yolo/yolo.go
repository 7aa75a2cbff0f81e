//go:build gocv
// +build gocv

package yolo

import (
	"context"
	"image"
	"log/slog"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-defect/model"
	"github.com/khaledhikmat/vs-defect/pipeline"
	"github.com/khaledhikmat/vs-defect/service/config"
	"github.com/khaledhikmat/vs-defect/service/inference"
	"github.com/khaledhikmat/vs-defect/service/lgr"
)

type yoloService struct {
	params  config.InferenceParameters
	format  pipeline.Format
	labels  []string
	allowed map[string]bool

	// WARNING: gocv.Net is not thread-safe. Each pooled net serves one request at a time.
	nets *pool[*gocv.Net]
}

// New loads the model once per worker and returns a concurrency-safe inference service.
func New(cfgSvc config.IService) (inference.IService, error) {
	params := cfgSvc.GetInferenceParameters()

	format, err := pipeline.ParseFormat(params.Format)
	if err != nil {
		return nil, err
	}

	if params.InputSize <= 0 {
		return nil, xerrors.Errorf("invalid model input size %d", params.InputSize)
	}

	if _, err := os.Stat(params.ModelPath); err != nil {
		return nil, xerrors.Errorf("no yolo model at %s: %w", params.ModelPath, err)
	}

	labels, err := pipeline.LoadLabels(params.LabelsPath)
	if err != nil {
		return nil, err
	}

	workers := params.Workers
	if workers <= 0 {
		workers = 1
	}

	svc := &yoloService{
		params:  params,
		format:  format,
		labels:  labels,
		allowed: pipeline.AllowedSet(params.AllowedClasses),
	}

	nets := make([]*gocv.Net, 0, workers)
	for i := 0; i < workers; i++ {
		net, err := loadNet(params.ModelPath)
		if err != nil {
			for _, n := range nets {
				n.Close()
			}
			return nil, xerrors.Errorf("worker %d: %w", i, err)
		}
		nets = append(nets, net)
	}
	svc.nets = newPool(nets)

	lgr.Logger.Info("yolo model loaded",
		slog.String("model", params.ModelPath),
		slog.String("format", string(format)),
		slog.Int("classes", len(labels)),
		slog.Int("workers", workers),
		slog.String("openCV", gocv.Version()),
	)

	return svc, nil
}

func loadNet(modelPath string) (*gocv.Net, error) {
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, xerrors.Errorf("error reading yolo model %s", modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting target: %w", err)
	}

	return &net, nil
}

func (svc *yoloService) Name() string {
	return "yolo"
}

func (svc *yoloService) Labels() []string {
	return append([]string(nil), svc.labels...)
}

func (svc *yoloService) Detect(ctx context.Context, imageData []byte) (dets []model.Detection, err error) {
	frame, err := decode(imageData)
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	net, err := svc.nets.get(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.nets.put(net)

	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("inference panic: %v", r)
		}
	}()

	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(svc.params.InputSize, svc.params.InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, xerrors.Errorf("reading model output: %w", err)
	}

	return pipeline.Parse(data, output.Size(), pipeline.ParseOptions{
		Format:              svc.format,
		Labels:              svc.labels,
		InputSize:           svc.params.InputSize,
		FrameWidth:          frame.Cols(),
		FrameHeight:         frame.Rows(),
		ConfidenceThreshold: svc.params.ConfidenceThreshold,
		NMSThreshold:        svc.params.NMSThreshold,
		Allowed:             svc.allowed,
	})
}

// decode turns the buffer into a BGR frame. The returned Mat is only valid when err is nil.
func decode(imageData []byte) (gocv.Mat, error) {
	if len(imageData) == 0 {
		return gocv.Mat{}, xerrors.Errorf("empty buffer: %w", model.ErrInvalidImage)
	}

	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, xerrors.Errorf("decoding %d bytes (%v): %w", len(imageData), err, model.ErrInvalidImage)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, xerrors.Errorf("decoding %d bytes: %w", len(imageData), model.ErrInvalidImage)
	}
	return mat, nil
}

// Close waits for in-flight inferences to hand their nets back before freeing them.
func (svc *yoloService) Close() error {
	err := svc.nets.close(func(net *gocv.Net) error {
		return net.Close()
	})
	if err != nil {
		lgr.Logger.Warn("error closing yolo nets", lgr.Err(err))
		return err
	}
	lgr.Logger.Info("yolo service closed", slog.Int("nets", svc.nets.size))
	return nil
}
