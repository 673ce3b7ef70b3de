package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent(t *testing.T) {
	e := NewEvent()
	assert.False(t, e.HasBeenNotified())

	done := make(chan bool)
	go func() {
		e.Wait()
		done <- true
	}()

	e.Notify()
	e.Notify()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}
	assert.True(t, e.HasBeenNotified())
	<-e.C()
}

func TestLocateFFmpegEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), 0755))

	t.Setenv("FFMPEG", p)
	got, err := LocateFFmpeg()
	require.NoError(t, err)
	assert.Equal(t, p, got)

	t.Setenv("FFMPEG", filepath.Join(t.TempDir(), "missing"))
	_, err = LocateFFmpeg()
	assert.Error(t, err)
}
