package httpapi

import (
	"net/http"

	"github.com/hyperifyio/telebirr-verify/internal/failure"
)

var statusByCode = map[failure.Code]int{
	failure.TxFormat:       http.StatusBadRequest,
	failure.InvalidURL:     http.StatusBadRequest,
	failure.InvalidProto:   http.StatusBadRequest,
	failure.TxExtract:      http.StatusBadRequest,
	failure.HostNotAllowed: http.StatusForbidden,
	failure.TxNotFound:     http.StatusNotFound,
	failure.ParseFail:      http.StatusUnprocessableEntity,
	failure.EmptyHTML:      http.StatusBadGateway,
	failure.PageLoad:       http.StatusBadGateway,
	failure.Navigation:     http.StatusBadGateway,
	failure.HTTPStatus:     http.StatusBadGateway,
	failure.BrowserLaunch:  http.StatusServiceUnavailable,
	failure.PageTimeout:    http.StatusGatewayTimeout,
	failure.Unknown:        http.StatusInternalServerError,
}

// StatusFor maps a failure code to its HTTP status. Unlisted codes are 500.
func StatusFor(c failure.Code) int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}
