package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_MissingVideoExitsNonZero(t *testing.T) {
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "missing.mp4"), false))
}

func TestRun_InvalidConfigExitsNonZero(t *testing.T) {
	t.Setenv("FRAME_DECODER", "gstreamer")

	assert.Equal(t, 1, run("demo.mp4", false))
}
