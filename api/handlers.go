package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-defect/model"
)

func (h *handler) detect(c *gin.Context) {
	upload, err := formImage(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.DetectionSvc.Detect(c.Request.Context(), upload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *handler) upload(c *gin.Context) {
	uploads, err := formFiles(c, h.CfgSvc.GetUploadMaxFiles())
	if err != nil {
		respondBatchError(c, err)
		return
	}

	res, err := h.DetectionSvc.DetectBatch(c.Request.Context(), uploads)
	if err != nil {
		respondBatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.DetectionSvc.Stats())
}

func (h *handler) labels(c *gin.Context) {
	labels := h.DetectionSvc.Labels()
	if labels == nil {
		labels = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels})
}

// formImage returns a nil upload when the request carries no image field.
func formImage(c *gin.Context) (*model.Upload, error) {
	fh, err := c.FormFile(fieldImage)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, model.NewMalformedUpload(err)
	}

	upload, err := readUpload(fh)
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

// formFiles reads at most maxFiles files; the rest are never opened.
func formFiles(c *gin.Context, maxFiles int) ([]model.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, model.NewMalformedUpload(err)
	}

	files := form.File[fieldFiles]
	if maxFiles > 0 && len(files) > maxFiles {
		files = files[:maxFiles]
	}

	uploads := make([]model.Upload, 0, len(files))
	for _, fh := range files {
		upload, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) (model.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Upload{}, model.NewInternal(fh.Filename, xerrors.Errorf("opening %s: %w", fh.Filename, err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return model.Upload{}, model.NewInternal(fh.Filename, xerrors.Errorf("reading %s: %w", fh.Filename, err))
	}

	return model.Upload{
		Filename: fh.Filename,
		Data:     data,
	}, nil
}
