package memogen

import (
	"bufio"
	"encoding/json"
	"errors"
	"net/http"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// sseSink frames events as server-sent messages, one JSON object per
// data line, flushed as they are emitted.
type sseSink struct {
	bw      *bufio.Writer
	flusher http.Flusher
}

func newSSESink(w http.ResponseWriter) (*sseSink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return &sseSink{bw: bufio.NewWriter(w), flusher: flusher}, nil
}

func (s *sseSink) Emit(e Event) error {
	blob, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := s.bw.WriteString("data: "); err != nil {
		return err
	}
	if _, err := s.bw.Write(blob); err != nil {
		return err
	}
	if _, err := s.bw.WriteString("\n\n"); err != nil {
		return err
	}
	if err := s.bw.Flush(); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
