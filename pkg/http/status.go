package xhttp

import "github.com/valyala/fasthttp"

const (
	StatusRequestTimeout      = fasthttp.StatusRequestTimeout
	StatusInternalServerError = fasthttp.StatusInternalServerError
	StatusNotFound            = fasthttp.StatusNotFound
)

// StatusText returns the standard text for the given HTTP status code.
func StatusText(code int) string {
	return fasthttp.StatusMessage(code)
}
