package detection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/khaledhikmat/vs-defect/model"
	"github.com/khaledhikmat/vs-defect/pipeline"
	"github.com/khaledhikmat/vs-defect/service/config"
	"github.com/khaledhikmat/vs-defect/service/inference"
	"github.com/khaledhikmat/vs-defect/service/journal"
	"github.com/khaledhikmat/vs-defect/service/lgr"
)

type service struct {
	CfgSvc       config.IService
	InferenceSvc inference.IService
	JournalSvc   journal.IService

	detectKeywords pipeline.KeywordSet
	uploadKeywords pipeline.KeywordSet
	maxFiles       int
	isolate        bool

	startTime     time.Time
	mu            sync.Mutex
	stats         model.DetectorStats
	totalProcTime time.Duration
}

// NewService snapshots the keyword sets and batch limits; they do not change afterwards.
func NewService(cfgSvc config.IService, inferenceSvc inference.IService, journalSvc journal.IService) IService {
	if journalSvc == nil {
		journalSvc = journal.NewNoop()
	}

	svc := &service{
		CfgSvc:         cfgSvc,
		InferenceSvc:   inferenceSvc,
		JournalSvc:     journalSvc,
		detectKeywords: pipeline.NewKeywordSet(cfgSvc.GetDetectDefectKeywords()...),
		uploadKeywords: pipeline.NewKeywordSet(cfgSvc.GetUploadDefectKeywords()...),
		maxFiles:       cfgSvc.GetUploadMaxFiles(),
		isolate:        cfgSvc.GetUploadIsolateFailures(),
		startTime:      time.Now(),
		stats: model.DetectorStats{
			Name:     "detector",
			Backend:  inferenceSvc.Name(),
			Requests: map[string]int{},
			Errors:   map[model.ErrorKind]int{},
		},
	}

	lgr.Logger.Debug(
		"detection service created",
		slog.Any("detectKeywords", svc.detectKeywords.Words()),
		slog.Any("uploadKeywords", svc.uploadKeywords.Words()),
		slog.Int("maxFiles", svc.maxFiles),
		slog.Bool("isolateFailures", svc.isolate),
	)

	return svc
}

func (svc *service) Detect(ctx context.Context, upload *model.Upload) (model.DetectResult, error) {
	return svc.detectOne(ctx, model.EndpointDetect, upload)
}

func (svc *service) Scan(ctx context.Context, upload *model.Upload) (model.DetectResult, error) {
	return svc.detectOne(ctx, model.EndpointScan, upload)
}

func (svc *service) detectOne(ctx context.Context, endpoint string, upload *model.Upload) (model.DetectResult, error) {
	svc.countRequest(endpoint)

	if upload == nil {
		err := model.NewMissingInput()
		svc.countError(err)
		return model.DetectResult{}, err
	}

	res, err := svc.infer(ctx, endpoint, *upload, func(labels []string) ([]string, bool) {
		objects := pipeline.Dedup(labels)
		return objects, svc.detectKeywords.Matches(objects)
	})
	if err != nil {
		return model.DetectResult{}, err
	}

	return model.DetectResult{
		Objects: res.objects,
		Defect:  res.defect,
	}, nil
}

func (svc *service) DetectBatch(ctx context.Context, uploads []model.Upload) (model.BatchResult, error) {
	svc.countRequest(model.EndpointUpload)

	if svc.maxFiles > 0 && len(uploads) > svc.maxFiles {
		lgr.Logger.DebugContext(ctx, "batch truncated",
			slog.Int("received", len(uploads)),
			slog.Int("processed", svc.maxFiles),
		)
		uploads = uploads[:svc.maxFiles]
	}

	results := make([]model.BatchItem, 0, len(uploads))
	for _, upload := range uploads {
		res, err := svc.infer(ctx, model.EndpointUpload, upload, func(labels []string) ([]string, bool) {
			return labels, svc.uploadKeywords.Matches(labels)
		})
		if err != nil {
			de := model.AsDetectError(err)
			if !svc.isolate {
				return model.BatchResult{}, de
			}
			results = append(results, model.BatchItem{
				Filename: upload.Filename,
				Objects:  []string{},
				Error:    de.Message,
				Kind:     de.Kind,
			})
			continue
		}

		results = append(results, model.BatchItem{
			Filename: upload.Filename,
			Objects:  res.objects,
			Defect:   res.defect,
		})
	}

	return model.BatchResult{Results: results}, nil
}

func (svc *service) Labels() []string {
	return svc.InferenceSvc.Labels()
}

type reduced struct {
	objects []string
	defect  bool
}

// infer runs one image through the model and reduces its detections with reduce.
func (svc *service) infer(ctx context.Context, endpoint string, upload model.Upload, reduce func([]string) ([]string, bool)) (reduced, error) {
	start := time.Now()

	detections, err := svc.InferenceSvc.Detect(ctx, upload.Data)
	elapsed := time.Since(start)
	if err != nil {
		de := classify(upload.Filename, err)
		svc.countError(de)
		svc.journal(ctx, model.JournalEntry{
			Endpoint:   endpoint,
			Filename:   upload.Filename,
			Objects:    []string{},
			DurationMs: float64(elapsed.Microseconds()) / 1000,
			Error:      de.Message,
		})

		level := slog.LevelWarn
		if de.Kind == model.KindInternal {
			level = slog.LevelError
		}
		lgr.Logger.Log(ctx, level, "image rejected",
			slog.String("endpoint", endpoint),
			slog.String("filename", upload.Filename),
			slog.String("kind", string(de.Kind)),
			lgr.Err(err),
		)
		return reduced{}, de
	}

	objects, defect := reduce(pipeline.Labels(detections))
	svc.countImage(elapsed, defect)
	svc.journal(ctx, model.JournalEntry{
		Endpoint:   endpoint,
		Filename:   upload.Filename,
		Objects:    objects,
		Defect:     defect,
		Detections: detections,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
	})

	lgr.Logger.DebugContext(ctx, "image processed",
		slog.String("endpoint", endpoint),
		slog.String("filename", upload.Filename),
		slog.Int("detections", len(detections)),
		slog.Any("objects", objects),
		slog.Bool("defect", defect),
		slog.Duration("elapsed", elapsed),
	)

	return reduced{objects: objects, defect: defect}, nil
}

func classify(filename string, err error) *model.DetectError {
	var de *model.DetectError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, model.ErrInvalidImage):
		return model.NewMalformedInput(filename, err)
	default:
		return model.NewInternal(filename, err)
	}
}

func (svc *service) journal(ctx context.Context, entry model.JournalEntry) {
	if err := svc.JournalSvc.Record(ctx, entry); err != nil {
		lgr.Logger.WarnContext(ctx, "error writing detections journal", lgr.Err(err))
	}
}
