package ctype

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ByteOrder selects between packed little/big endian layouts and the
// host's native ABI layout.
type ByteOrder uint8

const (
	NativeOrder ByteOrder = iota
	LittleEndian
	BigEndian
)

// Packed reports whether members are laid out without alignment padding.
func (o ByteOrder) Packed() bool { return o != NativeOrder }

// Binary returns the encoding/binary order for multi-byte scalars.
func (o ByteOrder) Binary() binary.ByteOrder {
	switch o {
	case LittleEndian:
		return binary.LittleEndian
	case BigEndian:
		return binary.BigEndian
	default:
		return binary.NativeEndian
	}
}

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	default:
		return "native"
	}
}

// ParseByteOrder accepts "native", "little", "big", their short forms
// "le"/"be", and the struct-format prefixes "@", "<", ">", "!".
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native", "@":
		return NativeOrder, nil
	case "little", "le", "<":
		return LittleEndian, nil
	case "big", "be", ">", "!":
		return BigEndian, nil
	}
	return NativeOrder, fmt.Errorf("unknown byte order %q", s)
}
