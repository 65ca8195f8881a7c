// Package rpc implements the JSON-RPC 2.0 messages and the subset of the language server protocol
// types used by the Vyper language server.
package rpc

import (
	"encoding/json"
	"fmt"
)

// Error codes defined by JSON-RPC.
const (
	ParseError     int64 = -32700
	InvalidRequest int64 = -32600
	MethodNotFound int64 = -32601
	InvalidParams  int64 = -32602
	InternalError  int64 = -32603
)

// Error codes defined by the language server protocol.
const (
	// ServerNotInitialized is returned for requests received before the initialize request.
	ServerNotInitialized int64 = -32002
	UnknownErrorCode     int64 = -32001
)

// Message has all the fields of request, response and notification. Presence/absence of fields is
// used to discriminate which one it is. Unmarshaling of those discriminatory fields is deferred
// until we know which it is.
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#abstractMessage
type Message struct {
	Version Version          `json:"jsonrpc"`
	ID      *ID              `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  *json.RawMessage `json:"params,omitempty"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *Error           `json:"error,omitempty"`
}

// IsNotification reports whether the message is a notification which must not be answered.
func (m Message) IsNotification() bool {
	return m.ID == nil
}

// Response creates a response to the request with given id. A nil result is encoded as null.
func Response(id *ID, result any) (Message, error) {
	content, err := json.Marshal(result)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode result: %v", err)
	}
	raw := json.RawMessage(content)
	return Message{ID: id, Result: &raw}, nil
}

// ErrorResponse creates an error response to the request with given id.
func ErrorResponse(id *ID, code int64, msg string) Message {
	return Message{ID: id, Error: &Error{Code: code, Message: msg}}
}

// Notification creates a notification of given method.
func Notification(method string, params any) (Message, error) {
	content, err := json.Marshal(params)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode params: %v", err)
	}
	raw := json.RawMessage(content)
	return Message{Method: method, Params: &raw}, nil
}

// Error represents a structured error in a response.
type Error struct {
	// Code indicating the type of error.
	Code int64 `json:"code"`
	// Message is a short description of the error.
	Message string `json:"message"`
	// Data is optional structured data containing additional information about the error.
	Data *json.RawMessage `json:"data,omitempty"`
}

// Version is a zero-sized struct that encodes as the jsonrpc version tag.
// It will fail during decode if it is not the correct version tag in the stream.
type Version struct{}

func (Version) MarshalJSON() ([]byte, error) {
	return json.Marshal("2.0")
}

func (v *Version) UnmarshalJSON(data []byte) error {
	var version string
	if err := json.Unmarshal(data, &version); err != nil {
		return err
	}
	if version != "2.0" {
		return fmt.Errorf("invalid RPC version %v", version)
	}
	return nil
}

// ID is a request identifier that can be either a string or integer.
type ID struct {
	name   string
	number int64
}

func (id *ID) MarshalJSON() ([]byte, error) {
	if id.name != "" {
		return json.Marshal(id.name)
	}
	return json.Marshal(id.number)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ID{} // reset to support reusing ID in unmarshal
	if err := json.Unmarshal(data, &id.number); err == nil {
		return nil
	}
	return json.Unmarshal(data, &id.name)
}
