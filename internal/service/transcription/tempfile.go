package transcription

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/seu-repo/slack-relay/internal/observability/telemetry"
)

// TempFile is an upload persisted to disk for the lifetime of one request.
// Release removes it exactly once; later calls return the first result.
type TempFile struct {
	path string
	size int64

	once sync.Once
	err  error
}

// CreateTempFile copies src into a new uniquely named file in dir (the OS
// temp dir when empty) whose name ends in suffix. On any failure the
// partial file is removed before returning.
func CreateTempFile(dir, suffix string, src io.Reader) (*TempFile, error) {
	f, err := os.CreateTemp(dir, "upload-*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	telemetry.TempFilesActive.Inc()
	tmp := &TempFile{path: f.Name()}

	n, err := io.Copy(f, src)
	if err != nil {
		f.Close()
		tmp.Release()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		tmp.Release()
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	tmp.size = n
	return tmp, nil
}

func (t *TempFile) Path() string { return t.path }

func (t *TempFile) Size() int64 { return t.size }

// Release deletes the file. A file that is already gone is not an error.
func (t *TempFile) Release() error {
	t.once.Do(func() {
		telemetry.TempFilesActive.Dec()
		if err := os.Remove(t.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.err = fmt.Errorf("remove temp file: %w", err)
		}
	})
	return t.err
}
