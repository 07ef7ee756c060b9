package response

import (
	"io"
	"net/http"

	"github.com/dmitrymomot/flowpilot/core/handler"
)

// Stream creates a streaming response that gives direct access to the
// response writer. The writer function should write data in chunks and
// flush between them; the response is flushed once more when it returns.
//
// The 200 status is committed before the writer runs, so mid-stream
// failures surface as a truncated body plus an error to the router's
// error handler, never as a second status line.
func Stream(writer func(w io.Writer) error) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return nil
		}

		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		w.WriteHeader(http.StatusOK)

		if err := writer(w); err != nil {
			return err
		}

		flusher.Flush()
		return nil
	}
}

// TextStream is Stream with a text/plain content type, for responses that
// forward model output chunk by chunk as it is produced.
func TextStream(writer func(w io.Writer) error) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		return Stream(writer)(w, r)
	}
}

// FlushWriter wraps an io.Writer so every Write is followed by a Flush
// when the underlying writer supports it. Streaming handlers use it to
// hand backpressure-preserving writers to producers.
type FlushWriter struct {
	W io.Writer
}

func (fw FlushWriter) Write(p []byte) (int, error) {
	n, err := fw.W.Write(p)
	if f, ok := fw.W.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}
