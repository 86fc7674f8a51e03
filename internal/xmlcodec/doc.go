// Package xmlcodec maps meetings, tracks and projects to and from their XML
// documents. Decoding is tolerant: absent elements and attributes fall back
// to defaults instead of failing, and only malformed XML is an error.
package xmlcodec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/starford/minutebook/internal/slug"
)

// TimestampLayout is the local, second-precision timestamp format used for
// FinalizedAt and note creation times.
const TimestampLayout = "2006-01-02T15:04:05"

// Options supplies the values used for fields missing from a document.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) newID() string {
	if o.NewID != nil {
		return o.NewID()
	}
	return slug.NewID()
}

func (o Options) idOr(id string) string {
	if id != "" {
		return id
	}
	return o.newID()
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("xmlcodec: encode: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func unmarshal(data []byte, v any) error {
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("xmlcodec: decode: %w", err)
	}
	return nil
}
