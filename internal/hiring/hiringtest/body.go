package hiringtest

import (
	"bytes"
	"io"
	"net/http"
)

// readAll reads the request body and puts it back for the handler.
func readAll(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, err
}
