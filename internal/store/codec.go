package store

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
)

const (
	formatJSON   byte = 'j'
	formatSnappy byte = 's'
)

// Codec frames JSON payloads with a one byte format marker. Unframed JSON is
// still accepted so hand-edited records load.
type Codec struct {
	Compress bool
}

func (c Codec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if c.Compress {
		return append([]byte{formatSnappy}, snappy.Encode(nil, raw)...), nil
	}
	return append([]byte{formatJSON}, raw...), nil
}

func (c Codec) Decode(data []byte, v any) error {
	if len(data) == 0 {
		return ErrCorrupt
	}

	var raw []byte
	switch data[0] {
	case formatJSON:
		raw = data[1:]
	case formatSnappy:
		decoded, err := snappy.Decode(nil, data[1:])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		raw = decoded
	default:
		raw = data
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

func (c Codec) Name() string {
	if c.Compress {
		return "json+snappy"
	}
	return "json"
}
