//go:build !gocv
// +build !gocv

package yolo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-defect/service/config"
)

func TestNewWithoutOpenCV(t *testing.T) {
	svc, err := New(config.NewHardCoded())
	require.Error(t, err)
	require.Nil(t, svc)
	require.Contains(t, err.Error(), "-tags gocv")
}
