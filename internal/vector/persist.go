package vector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/hyperjump/kotae/internal/models"
)

// On-disk layout (little-endian): magic "KVIX", uint32 format version,
// uint32 manifest JSON length, manifest JSON, then Count entry records:
// uint32 idLen + id, uint32 docIDLen + docID, uint32 textLen + text,
// uint32 spanStart, uint32 spanEnd, Dimension float32s.
const (
	fileMagic     = "KVIX"
	formatVersion = 1
)

// writeIndexFile persists m and entries to path. Entries are written in
// ascending chunk-id order so identical entry sets produce identical files
// regardless of insertion order. The parent directory is created if needed.
func writeIndexFile(path string, m Manifest, entries map[string]*Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	m.Count = len(entries)
	m.FormatVersion = formatVersion
	manifestJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if _, err := w.WriteString(fileMagic); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(formatVersion)); err != nil {
		return fmt.Errorf("write format version: %w", err)
	}
	if err := writeBytes(w, manifestJSON); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := entries[id]
		if err := writeBytes(w, []byte(e.ChunkID)); err != nil {
			return fmt.Errorf("write entry id: %w", err)
		}
		if err := writeBytes(w, []byte(e.DocumentID)); err != nil {
			return fmt.Errorf("write entry document id: %w", err)
		}
		if err := writeBytes(w, []byte(e.Text)); err != nil {
			return fmt.Errorf("write entry text: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(e.SpanStart)); err != nil {
			return fmt.Errorf("write entry span: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(e.SpanEnd)); err != nil {
			return fmt.Errorf("write entry span: %w", err)
		}
		if _, err := w.Write(float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("write entry vector: %w", err)
		}
	}
	return w.Flush()
}

// readIndexFile reads a persisted index and validates it against the live
// index's dimension, metric, and embedder identity. Returns the on-disk
// manifest and the reconstructed entry set.
func readIndexFile(path string, want Manifest) (Manifest, map[string]*Entry, error) {
	var m Manifest
	f, err := os.Open(path)
	if err != nil {
		return m, nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return m, nil, fmt.Errorf("stat index file: %w", err)
	}
	// No record can be longer than the file itself; a corrupt length prefix
	// must fail before the allocation, not after.
	maxRecord := fi.Size()
	r := bufio.NewReader(f)

	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != fileMagic {
		return m, nil, fmt.Errorf("%w: bad magic in %s", models.ErrCorruptIndex, path)
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return m, nil, fmt.Errorf("%w: truncated header: %v", models.ErrCorruptIndex, err)
	}
	if int(version) > formatVersion {
		return m, nil, fmt.Errorf("%w: file has version %d, this build supports up to %d",
			models.ErrVersionMismatch, version, formatVersion)
	}
	manifestJSON, err := readBytes(r, maxRecord)
	if err != nil {
		return m, nil, fmt.Errorf("%w: unreadable manifest: %v", models.ErrCorruptIndex, err)
	}
	if err := json.Unmarshal(manifestJSON, &m); err != nil {
		return m, nil, fmt.Errorf("%w: unreadable manifest: %v", models.ErrCorruptIndex, err)
	}
	if m.Dimension != want.Dimension {
		return m, nil, fmt.Errorf("%w: file has dimension %d, index expects %d",
			models.ErrDimensionMismatch, m.Dimension, want.Dimension)
	}
	if m.Metric != want.Metric {
		return m, nil, fmt.Errorf("%w: file metric %q, index metric %q",
			models.ErrManifestMismatch, m.Metric, want.Metric)
	}
	if want.EmbedderID != "" && m.EmbedderID != "" && m.EmbedderID != want.EmbedderID {
		return m, nil, fmt.Errorf("%w: file built with embedder %q, index configured for %q",
			models.ErrManifestMismatch, m.EmbedderID, want.EmbedderID)
	}

	entries := make(map[string]*Entry, m.Count)
	vecBuf := make([]byte, m.Dimension*4)
	for i := 0; i < m.Count; i++ {
		id, err := readBytes(r, maxRecord)
		if err != nil {
			return m, nil, fmt.Errorf("%w: entry %d of %d missing: %v", models.ErrCorruptIndex, i, m.Count, err)
		}
		docID, err := readBytes(r, maxRecord)
		if err != nil {
			return m, nil, fmt.Errorf("%w: entry %d truncated: %v", models.ErrCorruptIndex, i, err)
		}
		text, err := readBytes(r, maxRecord)
		if err != nil {
			return m, nil, fmt.Errorf("%w: entry %d truncated: %v", models.ErrCorruptIndex, i, err)
		}
		var spanStart, spanEnd uint32
		if err := binary.Read(r, binary.LittleEndian, &spanStart); err != nil {
			return m, nil, fmt.Errorf("%w: entry %d truncated: %v", models.ErrCorruptIndex, i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &spanEnd); err != nil {
			return m, nil, fmt.Errorf("%w: entry %d truncated: %v", models.ErrCorruptIndex, i, err)
		}
		if _, err := io.ReadFull(r, vecBuf); err != nil {
			return m, nil, fmt.Errorf("%w: entry %d vector truncated: %v", models.ErrCorruptIndex, i, err)
		}
		entries[string(id)] = &Entry{
			ChunkID:    string(id),
			Vector:     bytesToFloat32Slice(vecBuf),
			DocumentID: string(docID),
			Text:       string(text),
			SpanStart:  int(spanStart),
			SpanEnd:    int(spanEnd),
		}
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return m, nil, fmt.Errorf("%w: trailing data after %d entries", models.ErrCorruptIndex, m.Count)
	}
	if len(entries) != m.Count {
		return m, nil, fmt.Errorf("%w: manifest count %d, found %d distinct entries",
			models.ErrCorruptIndex, m.Count, len(entries))
	}
	return m, entries, nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader, max int64) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if int64(n) > max {
		return nil, fmt.Errorf("record length %d exceeds file size %d", n, max)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
