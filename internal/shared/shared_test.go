package shared

import (
	"bytes"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info("hello", "key", "value")

	if buf.Len() == 0 {
		t.Error("expected log output")
	}
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Errorf("log output missing message: %s", buf.String())
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty ids")
	}
	if a == b {
		t.Error("expected unique ids")
	}
}
