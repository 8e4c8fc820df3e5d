package server

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec frames messages on a websocket. Browsers speak json, the desktop
// client gob, and msgpack is there for compact binary clients.
type Codec interface {
	Name() string
	MessageType() int
	Encode(w io.Writer, v interface{}) error
	Decode(r io.Reader, v interface{}) error
}

func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return jsonCodec{}, nil
	case "gob":
		return gobCodec{}, nil
	case "msgpack":
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string                            { return "json" }
func (jsonCodec) MessageType() int                        { return websocket.TextMessage }
func (jsonCodec) Encode(w io.Writer, v interface{}) error { return json.NewEncoder(w).Encode(v) }
func (jsonCodec) Decode(r io.Reader, v interface{}) error { return json.NewDecoder(r).Decode(v) }

type gobCodec struct{}

func (gobCodec) Name() string                            { return "gob" }
func (gobCodec) MessageType() int                        { return websocket.BinaryMessage }
func (gobCodec) Encode(w io.Writer, v interface{}) error { return gob.NewEncoder(w).Encode(v) }
func (gobCodec) Decode(r io.Reader, v interface{}) error { return gob.NewDecoder(r).Decode(v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string                            { return "msgpack" }
func (msgpackCodec) MessageType() int                        { return websocket.BinaryMessage }
func (msgpackCodec) Encode(w io.Writer, v interface{}) error { return msgpack.NewEncoder(w).Encode(v) }
func (msgpackCodec) Decode(r io.Reader, v interface{}) error { return msgpack.NewDecoder(r).Decode(v) }
