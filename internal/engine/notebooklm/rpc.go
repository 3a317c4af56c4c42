package notebooklm

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/segmentio/encoding/json"

	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
)

// batchexecute RPC ids.
const (
	RPCListNotebooks   = "wXbhsf"
	RPCCreateNotebook  = "CCqFvf"
	RPCGetNotebook     = "rLM1Ne"
	RPCAddSource       = "izAoDd"
	RPCCreateArtifact  = "R7cb6c"
	RPCListArtifacts   = "gArtLc"
	RPCGenerateMindMap = "yyryJe"
	RPCCreateNote      = "CYK0Xb"
	RPCUpdateNote      = "cYAfTb"
	RPCListNotes       = "cFji9"
)

// antiXSSI prefixes every batchexecute response.
var antiXSSI = []byte(")]}'")

// encodeRPCBody builds the form body of a single-RPC batchexecute call.
func encodeRPCBody(rpcID string, params any, csrf string) ([]byte, error) {
	inner, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", rpcID, err)
	}
	envelope, err := json.Marshal([]any{[]any{[]any{rpcID, string(inner), nil, "generic"}}})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", rpcID, err)
	}
	form := url.Values{}
	form.Set("f.req", string(envelope))
	if csrf != "" {
		form.Set("at", csrf)
	}
	return []byte(form.Encode() + "&"), nil
}

// decodeRPCResponse finds the wrb.fr entry of rpcID in a chunked response
// and parses its inner JSON payload.
func decodeRPCResponse(body []byte, rpcID string) (artifacts.Value, error) {
	body = bytes.TrimPrefix(bytes.TrimSpace(body), antiXSSI)
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '[' {
			continue // chunk length or blank
		}
		chunk, err := artifacts.ParseValue(line)
		if err != nil {
			continue
		}
		entries, _ := chunk.Items()
		for _, e := range entries {
			if tag, _ := e.StrAt(0); tag != "wrb.fr" {
				continue
			}
			if id, _ := e.StrAt(1); id != rpcID {
				continue
			}
			if inner, ok := e.StrAt(2); ok {
				return artifacts.ParseValue([]byte(inner))
			}
			if e.At(5).IsNull() {
				return artifacts.Null, nil
			}
			return artifacts.Null, rpcErrorFrom(rpcID, e.At(5))
		}
	}
	return artifacts.Null, fmt.Errorf("%w: %s", ErrEmptyResponse, rpcID)
}

// rpcErrorFrom reads the status list of a failed wrb.fr entry, e.g. [8] or
// [3, null, [["type.googleapis.com/...", ...]]].
func rpcErrorFrom(rpcID string, status artifacts.Value) *RPCError {
	e := &RPCError{RPCID: rpcID}
	if n, ok := status.At(0).Number(); ok {
		e.Code = int(n)
	}
	if s, ok := status.Path(2, 0, 0).Str(); ok {
		e.Message = s
	}
	return e
}
