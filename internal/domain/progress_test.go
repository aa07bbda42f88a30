package domain

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressSample_Percent(t *testing.T) {
	tests := []struct {
		name     string
		sample   ProgressSample
		expected float64
		known    bool
	}{
		{"half", ProgressSample{Downloaded: 50, Total: 100}, 50, true},
		{"complete", ProgressSample{Downloaded: 100, Total: 100}, 100, true},
		{"overshoot clamps", ProgressSample{Downloaded: 150, Total: 100}, 100, true},
		{"unknown", ProgressSample{Downloaded: 150, Total: UnknownSize}, 0, false},
		{"zero total", ProgressSample{Downloaded: 0, Total: 0}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := tt.sample.Percent()
			assert.Equal(t, tt.known, ok)
			assert.InDelta(t, tt.expected, p, 0.0001)
		})
	}
}

func TestNewProgressEvent(t *testing.T) {
	ev := NewProgressEvent("dl-1", ProgressSample{Downloaded: 25, Total: 100})

	require.NotNil(t, ev.Progress)
	assert.Equal(t, EventProgress, ev.Event)
	assert.InDelta(t, 25, *ev.Progress, 0.0001)
	assert.False(t, ev.Indeterminate)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"progress","downloadId":"dl-1","progress":25,"indeterminate":false,"downloadedBytes":25,"totalBytes":100}`, string(data))
}

func TestNewProgressEvent_UnknownTotal(t *testing.T) {
	ev := NewProgressEvent("dl-1", ProgressSample{Downloaded: 4096, Total: UnknownSize})

	assert.Nil(t, ev.Progress)
	assert.True(t, ev.Indeterminate)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"progress","downloadId":"dl-1","progress":null,"indeterminate":true,"downloadedBytes":4096,"totalBytes":-1}`, string(data))
}

func TestTypedErrors(t *testing.T) {
	extractErr := &ExtractionError{Platform: PlatformTikTok, Err: ErrNoMedia}
	assert.ErrorIs(t, extractErr, ErrNoMedia)
	assert.Contains(t, extractErr.Error(), "tiktok")

	readErr := &TransferError{Op: OpRead, Path: "downloads/a.mp4", Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, readErr, io.ErrUnexpectedEOF)
	assert.False(t, readErr.IsDiskFailure())

	writeErr := &TransferError{Op: OpWrite, Path: "downloads/a.mp4", Err: errors.New("disk full")}
	assert.True(t, writeErr.IsDiskFailure())

	var target *TransferError
	assert.True(t, errors.As(error(writeErr), &target))
	assert.Equal(t, OpWrite, target.Op)
}
