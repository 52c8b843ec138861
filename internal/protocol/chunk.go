// Package protocol speaks version 2 of the Splunk custom search command
// protocol ("chunked 1.0") on a pair of byte streams.
package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// maxChunkSize caps each of the metadata and body sections of one chunk.
const maxChunkSize = 64 << 20

var headerPattern = regexp.MustCompile(`^chunked\s+1\.0\s*,\s*(\d+)\s*,\s*(\d+)\s*$`)

// ErrMalformedHeader is returned for a transport header that is not
// "chunked 1.0,<metadata length>,<body length>".
var ErrMalformedHeader = errors.New("malformed chunk header")

// Chunk is one protocol message: a JSON metadata object and an optional
// CSV body.
type Chunk struct {
	Metadata []byte
	Body     []byte
}

// ReadChunk reads the next chunk. It returns io.EOF when the stream ends
// cleanly between chunks.
func ReadChunk(r *bufio.Reader) (*Chunk, error) {
	var header string
	for {
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return nil, err
		}
		header = strings.TrimRight(line, "\r\n")
		if header != "" || err == io.EOF {
			break
		}
	}
	if header == "" {
		return nil, io.EOF
	}

	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, header)
	}
	metaLen, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, header)
	}
	bodyLen, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, header)
	}
	if metaLen > maxChunkSize || bodyLen > maxChunkSize {
		return nil, fmt.Errorf("chunk too large: metadata %d bytes, body %d bytes", metaLen, bodyLen)
	}

	c := &Chunk{Metadata: make([]byte, metaLen), Body: make([]byte, bodyLen)}
	if _, err := io.ReadFull(r, c.Metadata); err != nil {
		return nil, fmt.Errorf("read chunk metadata: %w", err)
	}
	if _, err := io.ReadFull(r, c.Body); err != nil {
		return nil, fmt.Errorf("read chunk body: %w", err)
	}
	return c, nil
}

// WriteChunk encodes meta as JSON and writes it with body as one chunk.
func WriteChunk(w io.Writer, meta any, body []byte) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode chunk metadata: %w", err)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "chunked 1.0,%d,%d\n", len(data), len(body))
	buf.Write(data)
	buf.Write(body)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	return nil
}
