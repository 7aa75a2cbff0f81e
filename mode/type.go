package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/vs-defect/model"
	"github.com/khaledhikmat/vs-defect/service/config"
	"github.com/khaledhikmat/vs-defect/service/detection"
	"github.com/khaledhikmat/vs-defect/service/inference"
	"github.com/khaledhikmat/vs-defect/service/lgr"
)

// ServicesFactory carries the services a mode processor runs with.
// They are created once in main and shared by every request.
type ServicesFactory struct {
	CfgSvc       config.IService
	InferenceSvc inference.IService
	DetectionSvc detection.IService
}

// Signature of mode processor function
type Processor func(canxCtx context.Context, svcs ServicesFactory) error

func procError(err interface{}) {
	switch e := err.(type) {
	case model.CustomError:
		lgr.Logger.Error(
			e.Message,
			slog.String("processor", e.Processor),
			slog.Any("misc", e.Misc),
			lgr.Err(e.Inner),
		)
	case error:
		lgr.Logger.Error(
			"mode processor error",
			lgr.Err(e),
		)
	default:
		lgr.Logger.Error(
			"unknown error type",
			slog.Any("error", e),
		)
	}
}
