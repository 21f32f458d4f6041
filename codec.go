package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	errEmptyType    = errors.New("empty message type")
	errEmptyPayload = errors.New("empty payload")
	errBadFrame     = errors.New("malformed binary frame")
)

// EncodeJSON marshals a typed envelope as a text frame
func EncodeJSON(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, errEmptyType
	}
	b, err := json.Marshal(Envelope{T: t, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	return b, nil
}

// EncodeMsgpack marshals a typed envelope as a binary frame
func EncodeMsgpack(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, errEmptyType
	}
	b, err := msgpack.Marshal(Envelope{T: t, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	return b, nil
}

// DecodeEnvelope parses the outer frame of a client text message
func DecodeEnvelope(raw []byte) (InEnvelope, error) {
	var env InEnvelope
	if len(raw) == 0 {
		return env, errEmptyPayload
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.T == "" {
		return env, errEmptyType
	}
	return env, nil
}

// DecodePayload unmarshals the d field of an envelope into T
func DecodePayload[T any](env InEnvelope) (T, error) {
	var out T
	if len(env.D) == 0 {
		return out, fmt.Errorf("%q: %w", env.T, errEmptyPayload)
	}
	if err := json.Unmarshal(env.D, &out); err != nil {
		return out, fmt.Errorf("decode %q: %w", env.T, err)
	}
	return out, nil
}

// DecodeBinaryInput reads [0x01, flags, angle_hi, angle_lo]. The angle is
// a signed 16-bit count of milliradians.
func DecodeBinaryInput(msg []byte) (InputMsg, error) {
	if len(msg) != 4 || msg[0] != BinInput {
		return InputMsg{}, errBadFrame
	}
	flags := msg[1]
	in := InputMsg{
		Left:  flags&InputFlagLeft != 0,
		Right: flags&InputFlagRight != 0,
		Jump:  flags&InputFlagJump != 0,
		Shoot: flags&InputFlagShoot != 0,
	}
	if in.Shoot {
		angle := float64(int16(uint16(msg[2])<<8|uint16(msg[3]))) / 1000
		in.Angle = &angle
	}
	return in, nil
}

// EncodeBinaryInput is the client side of DecodeBinaryInput
func EncodeBinaryInput(in InputMsg) []byte {
	var flags byte
	if in.Left {
		flags |= InputFlagLeft
	}
	if in.Right {
		flags |= InputFlagRight
	}
	if in.Jump {
		flags |= InputFlagJump
	}
	var mrad int16
	if in.Shoot && in.Angle != nil {
		flags |= InputFlagShoot
		mrad = int16(math.Round(Clamp(*in.Angle, -math.Pi, math.Pi) * 1000))
	}
	return []byte{BinInput, flags, byte(uint16(mrad) >> 8), byte(uint16(mrad))}
}
