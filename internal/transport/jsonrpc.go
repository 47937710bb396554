package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
	ErrApplication    = -32000 // domain error; data.code holds the API code
)

const maxBatch = 50

var errInvalidRequest = errors.New("invalid request")

// Request is one JSON-RPC 2.0 call. A nil ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response is one JSON-RPC 2.0 reply.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id"`
}

// Error is the JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (r Request) valid() bool {
	return r.JSONRPC == "2.0" && r.Method != ""
}

// ParseRequest decodes a single call.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return Request{}, err
	}
	if !req.valid() {
		return Request{}, errInvalidRequest
	}
	return req, nil
}

// parseCalls accepts either one call object or a batch array.
func parseCalls(body io.Reader) ([]json.RawMessage, bool, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, false, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, true, err
		}
		return batch, true, nil
	}
	if !json.Valid(data) {
		return nil, false, errors.New("malformed JSON")
	}
	return []json.RawMessage{data}, false, nil
}

// WriteResult writes a success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeRPC(w, Response{JSONRPC: "2.0", Result: result, ID: id})
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeRPC(w, errorResponse(id, code, message, data))
}

func errorResponse(id any, code int, message string, data any) Response {
	return Response{JSONRPC: "2.0", Error: &Error{Code: code, Message: message, Data: data}, ID: id}
}

func writeRPC(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

// handleRPC runs tool commands through JSON-RPC 2.0, one call or a batch.
// Tool errors carry their API code in the error data.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request, _ httprouter.Params, userID string) {
	raw, batch, err := parseCalls(r.Body)
	if err != nil {
		WriteError(w, nil, ErrParseCode, "parse error", nil)
		return
	}
	if batch && (len(raw) == 0 || len(raw) > maxBatch) {
		WriteError(w, nil, ErrInvalidReq, "batch must hold 1 to 50 calls", nil)
		return
	}

	replies := make([]Response, 0, len(raw))
	for _, msg := range raw {
		var req Request
		if err := json.Unmarshal(msg, &req); err != nil || !req.valid() {
			replies = append(replies, errorResponse(nil, ErrInvalidReq, "invalid request", nil))
			continue
		}
		resp := s.call(r.Context(), userID, req)
		if req.ID != nil {
			replies = append(replies, resp)
		}
	}

	switch {
	case len(replies) == 0:
		w.WriteHeader(http.StatusNoContent)
	case batch:
		writeRPC(w, replies)
	default:
		writeRPC(w, replies[0])
	}
}

func (s *Server) call(ctx context.Context, userID string, req Request) Response {
	result, err := s.handler.Handle(ctx, userID, req.Method, req.Params)
	if err == nil {
		return Response{JSONRPC: "2.0", Result: result, ID: req.ID}
	}

	status, code, message := classify(err)
	data := map[string]string{"code": code}
	switch {
	case code == codeUnknownTool:
		return errorResponse(req.ID, ErrMethodNotFound, message, nil)
	case status == http.StatusInternalServerError:
		s.logger.Error("rpc call failed", "method", req.Method, "user_id", userID, "error", err)
		return errorResponse(req.ID, ErrInternal, message, data)
	case status == http.StatusBadRequest:
		return errorResponse(req.ID, ErrInvalidParams, message, data)
	default:
		return errorResponse(req.ID, ErrApplication, message, data)
	}
}
