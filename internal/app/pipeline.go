package app

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/yourusername/clipfetch/internal/domain"
)

const copyBufferSize = 32 * 1024

// WriteStream pipes src into a new file at path, reporting a progress sample
// per chunk. It closes src. On an I/O error the partial file stays on disk;
// when ctx ends first the partial file is removed and the context cause is
// returned.
func WriteStream(ctx context.Context, src *domain.MediaSource, path string, onProgress func(domain.ProgressSample)) (int64, error) {
	defer src.Stream.Close()

	// Unblock a pending Read as soon as the context ends.
	stop := context.AfterFunc(ctx, func() { src.Stream.Close() })
	defer stop()

	file, err := os.Create(path)
	if err != nil {
		return 0, &domain.TransferError{Op: domain.OpCreate, Path: path, Err: err}
	}

	state := newTransferState(src.TotalBytes, onProgress)
	reader := &progressReader{reader: src.Stream, state: state}

	written, err := copyWithContext(ctx, file, reader)
	if err == nil {
		if syncErr := file.Sync(); syncErr != nil {
			err = &domain.TransferError{Op: domain.OpSync, Path: path, Err: syncErr}
		}
	}
	if closeErr := file.Close(); closeErr != nil && err == nil {
		err = &domain.TransferError{Op: domain.OpClose, Path: path, Err: closeErr}
	}

	if err != nil && ctx.Err() != nil {
		os.Remove(path)
		return written, context.Cause(ctx)
	}

	if err != nil {
		var transferErr *domain.TransferError
		if errors.As(err, &transferErr) && transferErr.Path == "" {
			transferErr.Path = path
		}
		return written, err
	}

	state.finish()

	return written, nil
}

// copyWithContext copies until EOF, checking ctx between chunks. Read and
// write failures come back as *domain.TransferError with Op set accordingly.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			w, writeErr := dst.Write(buf[:n])
			written += int64(w)
			if writeErr != nil {
				return written, &domain.TransferError{Op: domain.OpWrite, Err: writeErr}
			}
			if w != n {
				return written, &domain.TransferError{Op: domain.OpWrite, Err: io.ErrShortWrite}
			}
		}

		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, &domain.TransferError{Op: domain.OpRead, Err: readErr}
		}
	}
}
