package http

import (
	"encoding/json"
	"io"
)

// DecodeJSON decodes a JSON body into dest.
func DecodeJSON(r io.Reader, dest interface{}) error {
	return json.NewDecoder(r).Decode(dest)
}
