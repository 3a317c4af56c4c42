package notebooklm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotAuthenticated  = errors.New("notebooklm: not authenticated, refresh storage_state.json")
	ErrMissingCookies    = errors.New("notebooklm: storage state has no SID cookie")
	ErrNotebookNotFound  = errors.New("notebooklm: notebook not found")
	ErrNoSources         = errors.New("notebooklm: notebook has no sources")
	ErrSourceTimeout     = errors.New("notebooklm: source processing timed out")
	ErrSourceFailed      = errors.New("notebooklm: source processing failed")
	ErrCompletionTimeout = errors.New("notebooklm: artifact generation timed out")
	ErrArtifactFailed    = errors.New("notebooklm: artifact generation failed")
	ErrNoReport          = errors.New("notebooklm: notebook has no completed report")
	ErrEmptyResponse     = errors.New("notebooklm: empty rpc response")
)

// codeResourceExhausted is the google.rpc.Code reported when a daily
// generation allowance is spent.
const codeResourceExhausted = 8

// RPCError is a batchexecute call that returned an error instead of a result.
type RPCError struct {
	RPCID      string
	Code       int    // google.rpc.Code, 0 when unknown
	HTTPStatus int    // transport status, 0 when the RPC itself failed
	Message    string // upstream status name or body snippet
}

func (e *RPCError) Error() string {
	switch {
	case e.HTTPStatus != 0 && e.HTTPStatus != http.StatusOK:
		return fmt.Sprintf("rpc %s: http %d %s", e.RPCID, e.HTTPStatus, e.Message)
	case e.Message != "":
		return fmt.Sprintf("rpc %s: code %d %s", e.RPCID, e.Code, e.Message)
	default:
		return fmt.Sprintf("rpc %s: code %d", e.RPCID, e.Code)
	}
}

// RateLimited reports whether the error means the daily quota is spent.
func (e *RPCError) RateLimited() bool {
	return e.HTTPStatus == http.StatusTooManyRequests ||
		e.Code == codeResourceExhausted ||
		e.Message == "RESOURCE_EXHAUSTED"
}

// IsRateLimited reports whether err wraps a rate-limit RPCError.
func IsRateLimited(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.RateLimited()
}
