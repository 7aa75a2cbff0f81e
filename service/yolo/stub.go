//go:build !gocv
// +build !gocv

package yolo

import (
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-defect/service/config"
	"github.com/khaledhikmat/vs-defect/service/inference"
)

// New reports that this binary was built without OpenCV support.
func New(_ config.IService) (inference.IService, error) {
	return nil, xerrors.New("yolo backend unavailable: rebuild with -tags gocv (requires OpenCV)")
}
