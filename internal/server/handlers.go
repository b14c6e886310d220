package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodySize = 1 << 20 // 1MB

// decodeJSONBody decodes a JSON request body into dst with a size cap.
// An empty body is an error: every POST handler here requires a payload.
func decodeJSONBody(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodySize)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
