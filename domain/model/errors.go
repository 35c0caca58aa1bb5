package model

import "fmt"

// DownloadError is returned when a remote asset fetch fails (non-2xx status
// or transport error). Retryable by the job wrapper.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download failed with status %d: %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("download failed: %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// TranscodeError is returned when the external encoder exits non-zero.
// Stderr carries the tool output for diagnosis. Retryable.
type TranscodeError struct {
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	tail := e.Stderr
	if len(tail) > 500 {
		tail = tail[len(tail)-500:]
	}
	return fmt.Sprintf("transcode failed: %v: %s", e.Err, tail)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// UploadError is returned when the publishing API rejects an upload or the
// response carries no video id. Retryable up to the publish job's attempt
// limit.
type UploadError struct {
	Strategy string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload via %s failed: %v", e.Strategy, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
