package store

import "github.com/vmihailenco/msgpack/v5"

// Operations understood by the relay
const (
	OpGet         = "get"
	OpSet         = "set"
	OpUpdate      = "update"
	OpRemove      = "remove"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// Frame kinds sent from the relay to clients
const (
	KindResponse = "res"
	KindEvent    = "evt"
)

// Request is one client operation. Writes carry no ID and are never acknowledged.
type Request struct {
	ID     uint64             `msgpack:"id,omitempty"`
	Op     string             `msgpack:"op"`
	Path   string             `msgpack:"path,omitempty"`
	Value  msgpack.RawMessage `msgpack:"value,omitempty"`
	Fields msgpack.RawMessage `msgpack:"fields,omitempty"`
	Sub    uint64             `msgpack:"sub,omitempty"`
}

// Frame is a relay reply to a request, or a subscription event
type Frame struct {
	Kind   string             `msgpack:"kind"`
	ID     uint64             `msgpack:"id,omitempty"`
	Sub    uint64             `msgpack:"sub,omitempty"`
	Error  string             `msgpack:"error,omitempty"`
	Exists bool               `msgpack:"exists,omitempty"`
	Value  msgpack.RawMessage `msgpack:"value,omitempty"`
}

// EncodeRequest marshals a request for the wire
func EncodeRequest(req Request) ([]byte, error) {
	return msgpack.Marshal(req)
}

// DecodeRequest unmarshals a request read from the wire
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	err := msgpack.Unmarshal(data, &req)
	return req, err
}

// EncodeFrame marshals a relay frame for the wire
func EncodeFrame(frame Frame) ([]byte, error) {
	return msgpack.Marshal(frame)
}

// DecodeFrame unmarshals a relay frame read from the wire
func DecodeFrame(data []byte) (Frame, error) {
	var frame Frame
	err := msgpack.Unmarshal(data, &frame)
	return frame, err
}

