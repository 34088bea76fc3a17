package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// decodeOptionalJSON decodes the request body into v, rejecting unknown
// fields and trailing data; an empty body leaves v untouched.
func decodeOptionalJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
