package api

import (
	"bufio"
	"bytes"
	"io"
)

// maxEventSize bounds a single server-sent event.
const maxEventSize = 1 << 20

// sseReader parses server-sent events.
type sseReader struct {
	reader *bufio.Reader
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{reader: bufio.NewReader(r)}
}

// ReadEvent returns the next event's name and data. Multi-line data is joined
// with newlines. It returns io.EOF when the stream ends.
func (s *sseReader) ReadEvent() (string, []byte, error) {
	var (
		eventType string
		dataLines [][]byte
		size      int
	)
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			return "", nil, err
		}
		line = bytes.TrimRight(line, "\r\n")

		// blank line ends the event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			eventType = ""
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		switch string(field) {
		case "event":
			eventType = string(value)
		case "data":
			size += len(value)
			if size > maxEventSize {
				return "", nil, errEventTooLarge
			}
			dataLines = append(dataLines, append([]byte(nil), value...))
		}
		// id: and retry: are not used
	}
}
