package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/models"
	"xhsdl/pkg/retry"
	"xhsdl/pkg/xhs"
)

var errIdle = errors.New("no data received within idle timeout")

// fetch downloads one task into place. It returns the final file size,
// whether the file was already present and the attempts used.
func (e *Engine) fetch(ctx context.Context, task models.DownloadTask, log logger.Logger) (int64, bool, int, error) {
	if size, ok := e.storage.ExistingSize(task.Path); ok {
		log.WithField("bytes", size).Debug("Destination exists, skipping transfer")
		return size, true, 0, nil
	}

	tempPath := e.storage.TempPath(task.Path)
	defer e.storage.Discard(tempPath)

	var (
		attempts  int
		resumable bool
		size      int64
	)
	cfg := retry.FromMaxRetry(e.cfg.MaxRetry, e.cfg.Backoff, log)
	err := retry.Do(ctx, func() error {
		attempts++
		var err error
		size, resumable, err = e.attempt(ctx, task, tempPath, resumable && attempts > 1)
		return err
	}, cfg)
	if err != nil {
		return 0, false, attempts, err
	}

	if err := e.storage.Promote(tempPath, task.Path); err != nil {
		return 0, false, attempts, err
	}
	return size, false, attempts, nil
}

// attempt performs one streaming request. With resume set it asks for
// the bytes missing from tempPath. It reports whether the server accepts
// range requests so the next attempt knows whether it may resume.
func (e *Engine) attempt(ctx context.Context, task models.DownloadTask, tempPath string, resume bool) (int64, bool, error) {
	var offset int64
	if resume {
		offset = e.storage.TempSize(tempPath)
	}

	reqCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, task.URL, nil)
	if err != nil {
		return 0, false, errs.Wrap(errs.ErrorTypeInvalidURL, err, "failed to create request")
	}
	if e.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}
	req.Header.Set("Referer", xhs.BaseURL+"/")
	if e.cfg.Cookie != "" && xhs.IsPlatformHost(req.URL.Hostname()) {
		req.Header.Set("Cookie", e.cfg.Cookie)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	if err := e.cfg.Limiter.Wait(ctx); err != nil {
		return 0, false, err
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, false, ctxErr
		}
		return 0, false, errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}
	defer resp.Body.Close()
	logger.LogRequest(e.logger, req.Method, task.URL, resp.StatusCode, time.Since(start))

	acceptRanges := strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes")

	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		// the partial file no longer matches what the server has
		return 0, false, &errs.Error{Type: errs.ErrorTypeNetwork, Message: "range not satisfiable, restarting", Code: resp.StatusCode}
	}
	if err := xhs.CheckResponseStatus(resp); err != nil {
		return 0, acceptRanges, err
	}

	appending := offset > 0 && resp.StatusCode == http.StatusPartialContent
	expected := resp.ContentLength
	if appending {
		expected = contentRangeTotal(resp.Header.Get("Content-Range"))
	} else {
		offset = 0
	}

	f, existing, err := e.storage.OpenTemp(task.Path, tempPath, appending)
	if err != nil {
		return 0, false, err
	}
	if appending && existing != offset {
		f.Close()
		return 0, false, errs.New(errs.ErrorTypeNetwork, "partial file changed size during resume")
	}

	body := &idleReader{r: resp.Body, idle: e.cfg.IdleTimeout}
	body.timer = time.AfterFunc(body.idle, func() { cancel(errIdle) })
	defer body.timer.Stop()

	n, copyErr := copyChunks(f, body, e.cfg.ChunkSize)
	closeErr := f.Close()

	size := existing + n
	if copyErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return size, acceptRanges, ctxErr
		}
		var werr *writeError
		if errors.As(copyErr, &werr) {
			return size, false, errs.Wrap(errs.ErrorTypeStorage, werr.err, "failed to write temporary file")
		}
		if errors.Is(context.Cause(reqCtx), errIdle) {
			copyErr = errIdle
		}
		return size, acceptRanges, errs.Wrap(errs.ErrorTypeNetwork, copyErr, "failed to read response body")
	}
	if closeErr != nil {
		return size, false, errs.Wrap(errs.ErrorTypeStorage, closeErr, "failed to close temporary file")
	}

	if expected >= 0 && size != expected {
		return size, acceptRanges, errs.New(errs.ErrorTypeNetwork, "incomplete download: %d of %d bytes", size, expected)
	}
	return size, acceptRanges, nil
}

// writeError marks failures on the destination side of a copy
type writeError struct{ err error }

func (w *writeError) Error() string { return w.err.Error() }
func (w *writeError) Unwrap() error { return w.err }

// copyChunks streams src to dst chunkSize bytes at a time
func copyChunks(dst *os.File, src io.Reader, chunkSize int) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, &writeError{werr}
			}
			if w != n {
				return written, &writeError{io.ErrShortWrite}
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// idleReader pushes back its timer every time data arrives
type idleReader struct {
	r     io.Reader
	timer *time.Timer
	idle  time.Duration
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.idle)
	}
	return n, err
}

// contentRangeTotal parses the complete length from "bytes a-b/total".
// An unknown length gives -1.
func contentRangeTotal(header string) int64 {
	i := strings.LastIndex(header, "/")
	if i < 0 {
		return -1
	}
	total, err := strconv.ParseInt(strings.TrimSpace(header[i+1:]), 10, 64)
	if err != nil {
		return -1
	}
	return total
}
