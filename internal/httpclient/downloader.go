package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/palgania/launcher/internal/fileutils"
	"github.com/palgania/launcher/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// FileWriteError marks a failure writing downloaded bytes to disk, as
// opposed to a failure fetching them.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error {
	return e.Err
}

// RateLimitedError marks an HTTP 429 from a download host. Callers must
// surface it as rate limiting, never as a missing file.
type RateLimitedError struct {
	Url string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited while downloading: %s", e.Url)
}

// fileWriter tags write failures so a full disk is distinguishable from a
// dropped connection.
type fileWriter struct {
	file afero.File
	path string
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		return n, &FileWriteError{Path: w.path, Err: err}
	}
	return n, nil
}

type progressWriter struct {
	total      int
	downloaded int
	onProgress func(float64)
}

// ProgressMsg reports download completion ratio to an attached Sender.
type ProgressMsg float64

type ProgressErrMsg struct{ Err error }

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.downloaded += len(p)
	if pw.total > 0 && pw.onProgress != nil {
		pw.onProgress(float64(pw.downloaded) / float64(pw.total))
	}
	return len(p), nil
}

type Sender interface {
	Send(msg tea.Msg)
}

func DownloadFile(ctx context.Context, url string, filepath string, client Doer, program Sender, filesystem ...afero.Fs) error {
	ctx, span := perf.StartSpan(ctx, "net.http.download",
		perf.WithAttributes(attribute.String("url", url)),
	)
	defer span.End()

	fs := fileutils.InitFilesystem(filesystem...)
	request, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	response, err := client.Do(request)
	if err != nil {
		if IsTimeoutError(err) {
			return WrapTimeoutError(err)
		}
		return fmt.Errorf("failed to download file: %w", err)
	}

	defer response.Body.Close()

	if response.StatusCode == http.StatusTooManyRequests {
		return &RateLimitedError{Url: url}
	}

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file: unexpected status code: %d", response.StatusCode)
	}

	file, err := fs.Create(filepath)
	if err != nil {
		return &FileWriteError{Path: filepath, Err: err}
	}
	defer file.Close()

	pw := &progressWriter{
		total: int(response.ContentLength),
		onProgress: func(ratio float64) {
			if program != nil {
				program.Send(ProgressMsg(ratio))
			}
		},
	}

	_, err = io.Copy(&fileWriter{file: file, path: filepath}, io.TeeReader(response.Body, pw))
	if err != nil {
		if program != nil {
			program.Send(ProgressErrMsg{err})
		}
		var writeErr *FileWriteError
		if errors.As(err, &writeErr) {
			return err
		}
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
