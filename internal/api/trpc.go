package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/doorsense/internal/infrastructure/metrics"
	"github.com/nerrad567/doorsense/internal/rpc"
)

// trpcResponse is one call's envelope. Exactly one field is set.
type trpcResponse struct {
	Result *trpcResult `json:"result,omitempty"`
	Error  *trpcError  `json:"error,omitempty"`
}

type trpcResult struct {
	Data any `json:"data"`
}

type trpcError struct {
	Message string        `json:"message"`
	Code    int           `json:"code"`
	Data    trpcErrorData `json:"data"`
}

type trpcErrorData struct {
	Code       rpc.Code `json:"code"`
	HTTPStatus int      `json:"httpStatus"`
	Path       string   `json:"path"`
}

// trpcCall is one parsed invocation of a request.
type trpcCall struct {
	path  string
	input json.RawMessage
	// err short-circuits the call when the request itself was malformed.
	err *rpc.Error
}

// handleTRPC serves /trpc/{path} in the tRPC HTTP wire format.
func (s *Server) handleTRPC(w http.ResponseWriter, r *http.Request) {
	batch := r.URL.Query().Get("batch") == "1"
	calls, kindErr := s.parseTRPCCalls(r, batch)

	var kind rpc.Kind
	switch r.Method {
	case http.MethodGet:
		kind = rpc.Query
	case http.MethodPost:
		kind = rpc.Mutation
	default:
		kindErr = rpc.Errorf(rpc.CodeMethodNotSupported, "Unsupported method %s", r.Method)
	}

	responses := make([]trpcResponse, len(calls))
	statuses := make([]int, len(calls))
	for i, call := range calls {
		callErr := call.err
		if kindErr != nil {
			callErr = kindErr
		}

		start := time.Now()
		var data any
		if callErr == nil {
			var err error
			data, err = s.router.Call(r.Context(), call.path, kind, call.input)
			callErr = rpc.ToError(err)
		}

		if callErr != nil {
			if callErr.Code == rpc.CodeInternal {
				s.logger.Error("procedure failed",
					"procedure", call.path,
					"error", callErr.Err,
					"request_id", requestID(r.Context()),
				)
			}
			metrics.ObserveProcedure(s.procedureLabel(call.path), string(callErr.Code), time.Since(start))
			responses[i] = errorResponse(call.path, callErr)
			statuses[i] = callErr.Code.HTTPStatus()
			continue
		}

		metrics.ObserveProcedure(s.procedureLabel(call.path), "", time.Since(start))
		responses[i] = trpcResponse{Result: &trpcResult{Data: data}}
		statuses[i] = http.StatusOK
	}

	if !batch {
		writeJSON(w, statuses[0], responses[0])
		return
	}
	writeJSON(w, batchStatus(statuses), responses)
}

// procedureLabel returns path when it names a registered procedure so that
// client-chosen paths cannot create new metric series.
func (s *Server) procedureLabel(path string) string {
	if _, ok := s.router.Lookup(path); ok {
		return path
	}
	return metrics.UnknownProcedure
}

// parseTRPCCalls splits the path and reads per-call inputs. Input that cannot
// be decoded marks every call BAD_REQUEST; the request still gets one
// envelope per named procedure.
func (s *Server) parseTRPCCalls(r *http.Request, batch bool) ([]trpcCall, *rpc.Error) {
	path := chi.URLParam(r, "*")
	paths := []string{path}
	if batch {
		paths = strings.Split(path, ",")
	}
	calls := make([]trpcCall, len(paths))
	for i, p := range paths {
		calls[i].path = p
	}

	raw, err := readTRPCInput(r)
	if err != nil {
		return calls, &rpc.Error{Code: rpc.CodeBadRequest, Message: "Failed to read request input", Err: err}
	}
	if len(raw) == 0 {
		return calls, nil
	}

	if !batch {
		if !json.Valid(raw) {
			return calls, rpc.Errorf(rpc.CodeBadRequest, "Input is not valid JSON")
		}
		calls[0].input = raw
		return calls, nil
	}

	var inputs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return calls, &rpc.Error{Code: rpc.CodeBadRequest, Message: `Batch input must be an object keyed by call index`, Err: err}
	}
	for i := range calls {
		calls[i].input = inputs[strconv.Itoa(i)]
	}
	return calls, nil
}

// readTRPCInput returns the input query parameter for GET and the body otherwise.
func readTRPCInput(r *http.Request) ([]byte, error) {
	if r.Method == http.MethodGet {
		return []byte(strings.TrimSpace(r.URL.Query().Get("input"))), nil
	}
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(body), nil
}

func errorResponse(path string, e *rpc.Error) trpcResponse {
	return trpcResponse{Error: &trpcError{
		Message: e.Message,
		Code:    e.Code.JSONRPCCode(),
		Data: trpcErrorData{
			Code:       e.Code,
			HTTPStatus: e.Code.HTTPStatus(),
			Path:       path,
		},
	}}
}

// batchStatus is the status shared by every call, or 207 when they differ.
func batchStatus(statuses []int) int {
	for _, st := range statuses[1:] {
		if st != statuses[0] {
			return http.StatusMultiStatus
		}
	}
	return statuses[0]
}
