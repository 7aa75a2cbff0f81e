package mode

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-defect/model"
	"github.com/khaledhikmat/vs-defect/service/lgr"
)

var scanExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

type scanSummary struct {
	Files    int
	Defects  []string
	Failures []string
}

type scanResult struct {
	filename string
	result   model.DetectResult
	err      error
}

// Scan runs every image in the scan folder through single-image detection
// and fails when any file could not be processed.
func Scan(canxCtx context.Context, svcs ServicesFactory) error {
	summary, err := scan(canxCtx, svcs)
	if err != nil {
		return err
	}

	lgr.Logger.Info(
		"scan completed",
		slog.String("folder", svcs.CfgSvc.GetScanFolder()),
		slog.Int("files", summary.Files),
		slog.Any("defects", summary.Defects),
		slog.Int("failures", len(summary.Failures)),
	)

	if len(summary.Failures) > 0 {
		return xerrors.Errorf("%d of %d files failed: %s", len(summary.Failures), summary.Files, strings.Join(summary.Failures, ", "))
	}
	return nil
}

func scan(canxCtx context.Context, svcs ServicesFactory) (scanSummary, error) {
	folder := svcs.CfgSvc.GetScanFolder()
	files, err := scanFiles(folder)
	if err != nil {
		return scanSummary{}, model.GenError("scan",
			err,
			map[string]interface{}{"folder": folder},
			"error listing scan folder")
	}

	workers := svcs.CfgSvc.GetInferenceParameters().Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan scanResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- scanOne(canxCtx, svcs, path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range files {
			select {
			case <-canxCtx.Done():
				return
			case jobs <- path:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := scanSummary{
		Defects:  []string{},
		Failures: []string{},
	}
	for r := range results {
		summary.Files++
		if r.err != nil {
			summary.Failures = append(summary.Failures, r.filename)
			procError(model.GenError("scan",
				r.err,
				map[string]interface{}{"file": r.filename},
				"error scanning file"))
			continue
		}

		lgr.Logger.Info(
			"file scanned",
			slog.String("file", r.filename),
			slog.Any("objects", r.result.Objects),
			slog.Bool("defect", r.result.Defect),
		)
		if r.result.Defect {
			summary.Defects = append(summary.Defects, r.filename)
		}
	}

	if canxCtx.Err() != nil {
		lgr.Logger.Info(
			"scan context cancelled",
			slog.Int("scanned", summary.Files),
			slog.Int("total", len(files)),
		)
	}

	sort.Strings(summary.Defects)
	sort.Strings(summary.Failures)
	return summary, nil
}

func scanOne(ctx context.Context, svcs ServicesFactory, path string) scanResult {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return scanResult{filename: name, err: err}
	}

	res, err := svcs.DetectionSvc.Scan(ctx, &model.Upload{
		Filename: name,
		Data:     data,
	})
	return scanResult{filename: name, result: res, err: err}
}

// scanFiles lists image files directly under folder, sorted by name.
func scanFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	files := []string{}
	for _, e := range entries {
		if e.IsDir() || !scanExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(folder, e.Name()))
	}
	return files, nil
}
