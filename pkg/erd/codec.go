package erd

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// The worker boundary reuses the JSON field names so both encodings agree.
const structTag = "json"

// EncodeInput serializes a build request.
func EncodeInput(in Input) ([]byte, error) {
	return marshal(in)
}

// DecodeInput deserializes a build request.
func DecodeInput(data []byte) (Input, error) {
	var in Input
	err := unmarshal(data, &in)
	return in, err
}

// EncodeResult serializes a build result.
func EncodeResult(r Result) ([]byte, error) {
	return marshal(r)
}

// DecodeResult deserializes a build result. Nodes and Edges are never nil.
func DecodeResult(data []byte) (Result, error) {
	var r Result
	if err := unmarshal(data, &r); err != nil {
		return Result{}, err
	}
	if r.Nodes == nil {
		r.Nodes = []Node{}
	}
	if r.Edges == nil {
		r.Edges = []Edge{}
	}
	return r, nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag(structTag)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag(structTag)
	return dec.Decode(v)
}
