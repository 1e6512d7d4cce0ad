// Package persistence writes and restores the keyspace snapshot spec.md
// §4.2/§6 calls "dump.my_rdb": an 8-byte magic header ("LANTERN1") followed
// by the binary body keyspace.Keyspace.Dump produces — one variable-length
// record per live key, tagged 'S'/'L'/'H' for String/List/Hash, each field
// and value itself length-prefixed so none of the plain-text format's
// separator ambiguity (spec.md §4.2's "lossy for any key, field, or value
// containing space, newline, or ':'") survives. Deadlines are never
// written, matching spec.md §6's "expiration deadlines are not persisted".
package persistence

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/lanternkv/lantern/internal/keyspace"
	"go.uber.org/zap"
)

const magicHeader = "LANTERN1"

// RDB writes and restores the keyspace snapshot at a single canonical
// path, atomically (write to a temp file, fsync, rename over the target)
// so a crash mid-write never leaves a half-written file in place of a
// good one.
type RDB struct {
	filename string
	logger   *zap.Logger
}

// NewRDB returns an RDB bound to filename, logged through logger.
func NewRDB(filename string, logger *zap.Logger) *RDB {
	return &RDB{filename: filename, logger: logger}
}

// Save writes ks to a temp file beside the target, fsyncs it, and renames
// it over the target path — the rename is atomic on the same filesystem,
// so concurrent readers (or a process restarting mid-write) never observe
// a partial snapshot.
func (r *RDB) Save(ks *keyspace.Keyspace) error {
	start := time.Now()
	tmpFile := r.filename + ".tmp"

	f, err := os.Create(tmpFile)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := bufio.NewWriterSize(f, 4*1024*1024)
	if _, err := writer.WriteString(magicHeader); err != nil {
		return err
	}
	if err := ks.Dump(writer); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpFile, r.filename); err != nil {
		return err
	}

	r.logger.Info("snapshot saved",
		zap.String("file", r.filename),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Load restores ks from the snapshot file, per spec.md §6 treating a
// missing file as "not an error; the server starts empty", and an
// unrecognized header as an incompatible/corrupt file rather than a fatal
// error — both leave ks untouched.
func (r *RDB) Load(ks *keyspace.Keyspace) error {
	f, err := os.Open(r.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)

	header := make([]byte, len(magicHeader))
	if _, err := io.ReadFull(reader, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		return err
	}
	if string(header) != magicHeader {
		r.logger.Warn("unrecognized snapshot header, starting empty", zap.String("header", string(header)))
		return nil
	}

	start := time.Now()
	if err := ks.Load(reader); err != nil {
		return err
	}

	r.logger.Info("snapshot loaded", zap.Duration("duration", time.Since(start)))
	return nil
}
