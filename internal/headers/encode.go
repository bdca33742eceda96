package headers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding for a header set.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatBase64  Format = "base64"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat accepts the names of the supported formats.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatYAML, FormatBase64, FormatMsgpack:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected: json, yaml, base64, msgpack)", s)
	}
}

// ContentType returns the MIME type used when serving f over HTTP.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatMsgpack:
		return "application/msgpack"
	case FormatBase64:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Encode serializes h in the given format. Base64 is the standard encoding
// of the JSON document.
func Encode(h Headers, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.Marshal(h)
	case FormatYAML:
		return yaml.Marshal(map[string]string(h))
	case FormatMsgpack:
		return msgpack.Marshal(map[string]string(h))
	case FormatBase64:
		data, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
		base64.StdEncoding.Encode(out, data)
		return out, nil
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}
