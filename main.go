package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-defect/mode"
	"github.com/khaledhikmat/vs-defect/service/config"
	"github.com/khaledhikmat/vs-defect/service/detection"
	"github.com/khaledhikmat/vs-defect/service/inference"
	"github.com/khaledhikmat/vs-defect/service/journal"
	"github.com/khaledhikmat/vs-defect/service/lgr"
	"github.com/khaledhikmat/vs-defect/service/yolo"
)

var modeProcessors = map[string]mode.Processor{
	"server": mode.Server,
	"scan":   mode.Scan,
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)
	defer canxFn()

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			lgr.Logger.Info(
				"received kill signal",
				slog.Any("signal", sig),
			)
			canxFn()
		case <-canxCtx.Done():
		}
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil {
			lgr.Logger.Warn("no .env file loaded, using process environment", lgr.Err(err))
		}
	}

	modeType := "server"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		return 2
	}

	// Config service
	cfgSvc := config.NewEnv()

	logCloser, err := lgr.Configure(lgr.Options{
		Level:  cfgSvc.GetLogLevel(),
		Format: cfgSvc.GetLogFormat(),
		File:   cfgSvc.GetLogFile(),
	})
	if err != nil {
		lgr.Logger.Error("error configuring logger", lgr.Err(err))
		return 1
	}
	defer logCloser.Close()

	// inference service: the model is loaded once and shared by every request
	inferenceSvc, err := newInference(cfgSvc)
	if err != nil {
		lgr.Logger.Error("error loading inference backend",
			slog.String("backend", cfgSvc.GetInferenceBackend()),
			lgr.Err(err),
		)
		return 1
	}
	defer inferenceSvc.Close()

	// journal service
	journalSvc := journal.NewRolling(cfgSvc)
	defer journalSvc.Close()

	svcs := mode.ServicesFactory{
		CfgSvc:       cfgSvc,
		InferenceSvc: inferenceSvc,
		DetectionSvc: detection.NewService(cfgSvc, inferenceSvc, journalSvc),
	}

	lgr.Logger.Info(
		"vs-defect starting",
		slog.String("mode", modeType),
		slog.String("backend", inferenceSvc.Name()),
		slog.Int("labels", len(inferenceSvc.Labels())),
	)

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	// Wait for cancellation or the mode processor to exit
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"vs-defect context cancelled",
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Error(
				"vs-defect mode processor exited",
				lgr.Err(err),
			)
			return 1
		}
		return 0
	}

	// The mode processor owns its own drain; give it one extra second to report back
	waitOnShutdown := time.Duration(cfgSvc.GetModeMaxShutdownTime()+1) * time.Second
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"vs-defect shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)
		return 1

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Error(
				"vs-defect mode processor exited",
				lgr.Err(err),
			)
			return 1
		}
	}

	return 0
}

func newInference(cfgSvc config.IService) (inference.IService, error) {
	switch cfgSvc.GetInferenceBackend() {
	case "yolo":
		return yolo.New(cfgSvc)
	case "fake":
		return inference.NewFake("person", "crack"), nil
	default:
		return nil, xerrors.Errorf("unknown inference backend %q", cfgSvc.GetInferenceBackend())
	}
}
