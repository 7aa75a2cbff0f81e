package mode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-defect/model"
	"github.com/khaledhikmat/vs-defect/service/config"
	"github.com/khaledhikmat/vs-defect/service/detection"
	"github.com/khaledhikmat/vs-defect/service/inference"
)

type modeConfig struct {
	config.IService
	folder  string
	address string
}

func (c modeConfig) GetScanFolder() string {
	return c.folder
}

func (c modeConfig) GetListenAddress() string {
	return c.address
}

func services(cfgSvc config.IService, inferenceSvc inference.IService) ServicesFactory {
	return ServicesFactory{
		CfgSvc:       cfgSvc,
		InferenceSvc: inferenceSvc,
		DetectionSvc: detection.NewService(cfgSvc, inferenceSvc, nil),
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestScanReportsDefectsAndFailures(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"))
	writePNG(t, filepath.Join(dir, "a.PNG"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jpg"), []byte("garbage"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o700))

	svcs := services(modeConfig{IService: config.NewHardCoded(), folder: dir}, inference.NewFake("crack"))

	summary, err := scan(context.Background(), svcs)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Files)
	require.Equal(t, []string{"a.PNG", "b.png"}, summary.Defects)
	require.Equal(t, []string{"bad.jpg"}, summary.Failures)

	stats := svcs.DetectionSvc.Stats()
	require.Equal(t, 3, stats.Requests[model.EndpointScan])
	require.Equal(t, 1, stats.Errors[model.KindMalformedInput])

	err = Scan(context.Background(), svcs)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.jpg")
}

func TestScanCleanFolder(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 7; i++ {
		writePNG(t, filepath.Join(dir, fmt.Sprintf("frame%d.png", i)))
	}

	svcs := services(modeConfig{IService: config.NewHardCoded(), folder: dir}, inference.NewFake("person"))

	summary, err := scan(context.Background(), svcs)
	require.NoError(t, err)
	require.Equal(t, 7, summary.Files)
	require.Empty(t, summary.Defects)
	require.Empty(t, summary.Failures)

	require.NoError(t, Scan(context.Background(), svcs))
}

func TestScanMissingFolder(t *testing.T) {
	svcs := services(modeConfig{IService: config.NewHardCoded(), folder: filepath.Join(t.TempDir(), "missing")}, inference.NewFake())

	err := Scan(context.Background(), svcs)
	require.Error(t, err)

	var ce model.CustomError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "scan", ce.Processor)
}

func TestServeUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	svcs := services(config.NewHardCoded(), inference.NewFake("crack"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, svcs, ln)
	}()

	url := fmt.Sprintf("http://%s/health", ln.Addr().String())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerBadAddress(t *testing.T) {
	svcs := services(modeConfig{IService: config.NewHardCoded(), address: "not-an-address"}, inference.NewFake())

	err := Server(context.Background(), svcs)
	require.Error(t, err)

	var ce model.CustomError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "server", ce.Processor)
}
