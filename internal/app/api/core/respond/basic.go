// Package respond provides a set of utility functions to help with the HTTP response handling.
package respond

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Status writes a response with the given status code.
// The response will not contain any data.
func Status(w http.ResponseWriter, code int) {
	w.WriteHeader(code)
}

// String writes a plain text response with the given status code and data.
// The Content-Type header is set to text/plain with a charset of utf-8.
func String(w http.ResponseWriter, code int, data string) {
	w.Header().Set("Content-Type", "text/plain;charset=utf-8")
	w.WriteHeader(code)

	_, _ = w.Write([]byte(data))
}

// JSON writes a JSON response with the given status code and data.
// If data is nil, the response body is null.
// All encoding errors are silently ignored.
func JSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")

	if data == nil {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("null"))
		return
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// Data writes a response with the given status code, content type, and data.
// If no content type is provided, it is detected from the data.
func Data(w http.ResponseWriter, code int, contentType string, data []byte) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(code)

	_, _ = w.Write(data)
}

// Attachment writes a response with the given status code, content type, filename, and data.
// If no content type is provided, it is detected from the data.
func Attachment(w http.ResponseWriter, code int, filename, contentType string, data []byte) {
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	Data(w, code, contentType, data)
}
