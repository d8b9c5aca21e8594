package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecodeRejectsUnsupportedSchemaVersion(t *testing.T) {
	_, err := Decode([]byte{99})
	if !errors.Is(err, ErrCorruptRecord) || !strings.Contains(err.Error(), "unsupported session schema version") {
		t.Fatalf("expected unsupported schema version error, got %v", err)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data, err := Encode(&Session{Username: "bob", Tokens: Tokens{Access: "a", Refresh: "r"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(append(data, 0)); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected corrupt record error, got %v", err)
	}
}

func TestDecodeRejectsTruncatedRecord(t *testing.T) {
	data, err := Encode(&Session{Username: "bob", Tokens: Tokens{Access: "access", Refresh: "refresh"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < len(data); i++ {
		if _, err := Decode(data[:i]); !errors.Is(err, ErrCorruptRecord) {
			t.Fatalf("prefix %d: expected corrupt record error, got %v", i, err)
		}
	}
}

func TestEncodePreservesFields(t *testing.T) {
	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &Session{
		Username: "alice",
		Tokens:   Tokens{Access: "eyJ.access", Refresh: "eyJ.refresh"},
		SavedAt:  saved,
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if data[0] != CurrentSchemaVersion {
		t.Fatalf("expected schema byte %d, got %d", CurrentSchemaVersion, data[0])
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Username != in.Username || out.Tokens != in.Tokens || !out.SavedAt.Equal(saved) {
		t.Fatalf("decoded %+v, want %+v", out, in)
	}
}

func TestEncodeRejectsOversizeField(t *testing.T) {
	_, err := Encode(&Session{
		Username: "alice",
		Tokens:   Tokens{Access: strings.Repeat("a", maxFieldLen+1), Refresh: "r"},
	})
	if !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("expected ErrFieldTooLong, got %v", err)
	}
}
