package mode

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/khaledhikmat/vs-defect/api"
	"github.com/khaledhikmat/vs-defect/model"
	"github.com/khaledhikmat/vs-defect/service/lgr"
)

// Server serves the detection API until the context is cancelled, then
// drains in-flight requests for at most the mode shutdown time.
func Server(canxCtx context.Context, svcs ServicesFactory) error {
	ln, err := net.Listen("tcp", svcs.CfgSvc.GetListenAddress())
	if err != nil {
		return model.GenError("server",
			err,
			map[string]interface{}{"address": svcs.CfgSvc.GetListenAddress()},
			"error listening")
	}

	return serve(canxCtx, svcs, ln)
}

func serve(canxCtx context.Context, svcs ServicesFactory, ln net.Listener) error {
	srv := &http.Server{
		Handler:           api.New(svcs.CfgSvc, svcs.DetectionSvc),
		ReadHeaderTimeout: time.Duration(svcs.CfgSvc.GetReadHeaderTimeout()) * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(canxCtx)
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		lgr.Logger.Info(
			"detection server listening",
			slog.String("address", ln.Addr().String()),
			slog.String("backend", svcs.InferenceSvc.Name()),
		)
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"detection server context cancelled",
		)

	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return model.GenError("server",
			err,
			map[string]interface{}{"address": ln.Addr().String()},
			"error serving")
	}

	period := time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second
	shutdownCtx, shutdownFn := context.WithTimeout(context.Background(), period)
	defer shutdownFn()

	lgr.Logger.Info(
		"detection server is draining requests",
		slog.Duration("period", period),
	)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return model.GenError("server",
			err,
			map[string]interface{}{},
			"error shutting down within %s", period)
	}

	return nil
}
