package catalog

import "fmt"

// APIError is an error reported in-band inside a 200 response body.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog %s returned error: %s", e.Endpoint, e.Message)
}

// StatusError is a non-2xx HTTP response from the catalog.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
