// Package request provides functions to extract parameters from the request.
package request

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Path returns the value of the named path parameter.
// The return value is trimmed of leading and trailing whitespace.
func Path(r *http.Request, name string) string {
	return strings.TrimSpace(r.PathValue(name))
}

// Query returns the value of the named query parameter.
// The return value is trimmed of leading and trailing whitespace.
func Query(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// QueryDefault returns the value of the named query parameter.
// If the parameter is not set, it returns the default value.
// The return value is trimmed of leading and trailing whitespace.
func QueryDefault(r *http.Request, name, defaultValue string) string {
	if !r.URL.Query().Has(name) {
		return defaultValue
	}

	return Query(r, name)
}

// QueryInt returns the value of the named query parameter as an integer.
// If the parameter is not set or not a number, it returns the default value.
func QueryInt(r *http.Request, name string, defaultValue int) int {
	raw := Query(r, name)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}

	return value
}

// QuerySlice returns all values of the named query parameter.
// All slice values are trimmed of leading and trailing whitespace.
func QuerySlice(r *http.Request, name string) []string {
	values, ok := r.URL.Query()[name]
	if !ok {
		return nil
	}

	result := make([]string, len(values))
	for i, value := range values {
		result[i] = strings.TrimSpace(value)
	}
	return result
}

// Header returns the value of the named header.
// The return value is trimmed of leading and trailing whitespace.
func Header(r *http.Request, name string) string {
	return strings.TrimSpace(r.Header.Get(name))
}

// UserAgent returns the User-Agent header of the request.
func UserAgent(r *http.Request) string {
	return Header(r, "User-Agent")
}

// ClientIp returns the client IP address.
//
// If the request comes from a private proxy address, the X-Real-Ip and
// X-Forwarded-For headers are consulted for the real client IP.
func ClientIp(r *http.Request) string {
	ipStr, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		ipStr = strings.TrimSpace(r.RemoteAddr)
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}

	if ip.IsPrivate() || ip.IsLoopback() {
		forwarded := Header(r, "X-Real-Ip")
		if forwarded == "" {
			forwarded = Header(r, "X-Forwarded-For")
		}
		if forwarded != "" {
			// X-Forwarded-For may contain a chain of addresses, the first one is the client
			first, _, _ := strings.Cut(forwarded, ",")
			if realIp := net.ParseIP(strings.TrimSpace(first)); realIp != nil {
				return realIp.String()
			}
		}
	}

	return ip.String()
}

// BodyJson decodes the JSON value from the request body into the target.
// The target must be a pointer to a struct or slice.
// The body reader is closed after reading.
func BodyJson(r *http.Request, target any) error {
	defer func() {
		_ = r.Body.Close()
	}()
	return json.NewDecoder(r.Body).Decode(target)
}
