package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

const (
	recordFormatVersionCurrent = 1

	maxFieldLen = math.MaxUint16
)

// CurrentSchemaVersion is the record format written by [Encode].
const CurrentSchemaVersion = recordFormatVersionCurrent

var (
	// ErrCorruptRecord is returned when a stored record cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt session record")
	// ErrFieldTooLong is returned when a session field exceeds the record limit.
	ErrFieldTooLong = errors.New("session field too long")
)

// Encode serializes s into the versioned binary record format.
//
// Layout (big-endian): version byte, then username, access and refresh as
// uint16-length-prefixed strings, then SavedAt as unix milliseconds (int64).
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 6 + len(s.Username) + len(s.Tokens.Access) + len(s.Tokens.Refresh) + 8)

	buf.WriteByte(recordFormatVersionCurrent)

	for _, field := range [...]struct {
		name  string
		value string
	}{
		{"username", s.Username},
		{"access", s.Tokens.Access},
		{"refresh", s.Tokens.Refresh},
	} {
		if len(field.value) > maxFieldLen {
			return nil, fmt.Errorf("%w: %s", ErrFieldTooLong, field.name)
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field.value))); err != nil {
			return nil, err
		}
		buf.WriteString(field.value)
	}

	var savedAt int64
	if !s.SavedAt.IsZero() {
		savedAt = s.SavedAt.UnixMilli()
	}
	if err := binary.Write(&buf, binary.BigEndian, savedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a record produced by [Encode].
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if version != recordFormatVersionCurrent {
		return nil, fmt.Errorf("%w: unsupported session schema version %d", ErrCorruptRecord, version)
	}

	fields := make([]string, 3)
	for i := range fields {
		var n uint16
		if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		fields[i] = string(raw)
	}

	var savedAt int64
	if err := binary.Read(reader, binary.BigEndian, &savedAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptRecord, reader.Len())
	}

	s := &Session{
		Username: fields[0],
		Tokens: Tokens{
			Access:  fields[1],
			Refresh: fields[2],
		},
	}
	if savedAt != 0 {
		s.SavedAt = time.UnixMilli(savedAt).UTC()
	}
	return s, nil
}
