// Package display paces streamed memo stages for a terminal or UI
// client. The decoder turns a server-sent event stream back into events;
// the machine separates the data loop, which buffers whatever has
// arrived, from the display loop, which reveals a fixed number of
// characters per tick and never reads past the buffer.
package display

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mikeburns/lobbyscope/internal/memogen"
)

// Decoder reads framed events from a server-sent event stream. Comment
// lines and blank keep-alive lines are skipped.
type Decoder struct {
	scanner *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Decoder{scanner: sc}
}

// Next returns the next event, or io.EOF when the stream ends.
func (d *Decoder) Next() (memogen.Event, error) {
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var e memogen.Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return memogen.Event{}, fmt.Errorf("bad event frame: %w", err)
		}
		return e, nil
	}
	if err := d.scanner.Err(); err != nil {
		return memogen.Event{}, err
	}
	return memogen.Event{}, io.EOF
}
