// Package statedump serializes builder state snapshots for offline
// inspection. A dump is a debugging artefact only: it is never read back
// into a builder.
package statedump

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"ripple/internal/builder"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// FileRecord is one file's identity as the builder saw it.
type FileRecord struct {
	Path      string
	Version   string
	Signature string
}

// Payload is the serialized snapshot.
type Payload struct {
	Schema  uint16
	Bundled bool

	Files   []FileRecord
	Changed []string
	Cached  []string

	BatchActive       bool
	BatchRoot         string
	BatchRemaining    uint32
	PendingSignatures uint32
}

// FromSnapshot converts a builder snapshot into its serial form.
func FromSnapshot(snap builder.Snapshot) (*Payload, error) {
	p := &Payload{
		Schema:      schemaVersion,
		Bundled:     snap.Bundled,
		BatchActive: snap.BatchActive,
		BatchRoot:   string(snap.BatchRoot),
	}
	remaining, err := safecast.Conv[uint32](snap.BatchRemaining)
	if err != nil {
		return nil, fmt.Errorf("batch remaining overflow: %w", err)
	}
	pending, err := safecast.Conv[uint32](snap.PendingSignatures)
	if err != nil {
		return nil, fmt.Errorf("pending signatures overflow: %w", err)
	}
	p.BatchRemaining = remaining
	p.PendingSignatures = pending

	p.Files = make([]FileRecord, 0, len(snap.Files))
	for _, f := range snap.Files {
		p.Files = append(p.Files, FileRecord{
			Path:      string(f.Path),
			Version:   f.Version,
			Signature: f.Signature,
		})
	}
	for _, c := range snap.Changed {
		p.Changed = append(p.Changed, string(c))
	}
	for _, c := range snap.CachedDiagnostics {
		p.Cached = append(p.Cached, string(c))
	}
	return p, nil
}

// Encode writes a snapshot to w.
func Encode(w io.Writer, snap builder.Snapshot) error {
	payload, err := FromSnapshot(snap)
	if err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(payload)
}

// Decode reads a payload back, rejecting unknown schema versions.
func Decode(r io.Reader) (*Payload, error) {
	var payload Payload
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Schema != schemaVersion {
		return nil, fmt.Errorf("unsupported state dump schema %d", payload.Schema)
	}
	return &payload, nil
}

// WriteFile writes a snapshot to path atomically (temp file plus rename).
func WriteFile(path string, snap builder.Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()
	if err := Encode(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}
