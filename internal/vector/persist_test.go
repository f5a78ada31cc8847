package vector

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

func truncateFile(path string, size int64) error {
	return os.Truncate(path, size)
}

// Persisted bytes are a function of the final entry set, not insertion order.
func TestSaveFile_InsertionOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, _ := NewFlatIndex(2, MetricCosine, "mock")
	_ = a.Insert(ctx, entry("x", "d", 1, 0))
	_ = a.Insert(ctx, entry("y", "d", 0, 1))

	b, _ := NewFlatIndex(2, MetricCosine, "mock")
	_ = b.Insert(ctx, entry("y", "d", 0, 1))
	_ = b.Insert(ctx, entry("x", "d", 1, 0))

	pathA := filepath.Join(dir, "a.kvix")
	pathB := filepath.Join(dir, "b.kvix")
	if err := a.SaveFile(pathA); err != nil {
		t.Fatal(err)
	}
	if err := b.SaveFile(pathB); err != nil {
		t.Fatal(err)
	}

	dataA, err := os.ReadFile(pathA)
	if err != nil {
		t.Fatal(err)
	}
	dataB, err := os.ReadFile(pathB)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dataA, dataB) {
		t.Error("same entry set should persist to identical bytes")
	}
}

// A corrupt length prefix claiming gigabytes must fail the length check,
// not allocate first and discover truncation later.
func TestLoadFile_OversizedLengthPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.kvix")
	var buf bytes.Buffer
	buf.WriteString(fileMagic)
	buf.Write([]byte{1, 0, 0, 0})             // format version 1
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff}) // manifest length: ~4 GiB
	if err := writeFile(path, buf.Bytes()); err != nil {
		t.Fatal(err)
	}

	idx, _ := NewFlatIndex(2, MetricCosine, "mock")
	err := idx.LoadFile(path)
	if !errors.Is(err, models.ErrCorruptIndex) {
		t.Errorf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	if err := idx.LoadFile(filepath.Join(t.TempDir(), "absent.kvix")); err == nil {
		t.Error("loading a missing file should fail")
	}
}
