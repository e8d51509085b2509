package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		assert.NoError(t, setupLogging(level), level)
	}
	assert.Error(t, setupLogging("chatty"))
}

func TestRunSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		runSweeper(ctx, func(context.Context) (int, error) {
			calls.Add(1)
			return 0, nil
		}, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestRunSweeperDisabled(t *testing.T) {
	runSweeper(context.Background(), func(context.Context) (int, error) {
		t.Fatal("sweep must not run")
		return 0, nil
	}, 0)
}

func TestPreprocessCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	require.NoError(t, imaging.Save(imaging.New(30, 20, color.NRGBA{R: 200, G: 100, B: 50, A: 255}), in))

	root := NewRootCmd()
	root.SetArgs([]string{"preprocess", in, out, "--threshold=false", "--deskew=false"})
	root.SetOut(&bytes.Buffer{})
	require.NoError(t, root.Execute())

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), img.Bounds())
	_, isGray := img.(*image.Gray)
	assert.True(t, isGray)
}

func TestPreprocessCommandMissingInput(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"preprocess", filepath.Join(t.TempDir(), "missing.png"), "out.png"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestExtractRequiresBBox(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"extract", "doc.pdf"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}
