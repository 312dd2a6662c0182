package natsbridge

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// Codec encodes and decodes stream values on the wire.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	ContentType() string
}

// JSONCodec encodes values as JSON. It is the default.
var JSONCodec Codec = jsonCodec{}

// CBORCodec encodes values as CBOR, a compact binary alternative for
// high-volume subjects.
var CBORCodec Codec = cborCodec{}

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Decode(b []byte, v any) error { return json.Unmarshal(b, v) }
func (jsonCodec) ContentType() string          { return "application/json" }

type cborCodec struct{}

func (cborCodec) Encode(v any) ([]byte, error) { return cbor.Marshal(v) }
func (cborCodec) Decode(b []byte, v any) error { return cbor.Unmarshal(b, v) }
func (cborCodec) ContentType() string          { return "application/cbor" }
