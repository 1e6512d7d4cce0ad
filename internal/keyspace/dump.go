package keyspace

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Record tags for the binary snapshot body. See package persistence's
// doc for the full on-disk layout, including the file-level magic
// header this package's Dump/Load do not themselves write.
const (
	recordString byte = 'S'
	recordList   byte = 'L'
	recordHash   byte = 'H'
)

// Dump writes every live key to w as a sequence of length-prefixed binary
// records. Shards are visited one at a time, each under its own RLock, so
// no two shard locks are ever held at once; this is a point-in-time view
// per shard rather than across the whole keyspace, which is sufficient for
// I5 since no operation spans more than one shard lock either. Deadlines
// are not persisted, matching spec.md §6's "expiration deadlines are not
// persisted" note.
func (k *Keyspace) Dump(w io.Writer) error {
	for _, s := range k.shards {
		if err := s.dump(w); err != nil {
			return err
		}
	}
	return nil
}

func (s *shard) dump(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UnixNano()
	for key, e := range s.entries {
		if exp, hasExp := s.deadlines[key]; hasExp && now > exp {
			continue
		}
		if err := writeRecord(w, key, e); err != nil {
			return err
		}
	}
	return nil
}

func writeRecord(w io.Writer, key string, e *entry) error {
	switch e.kind {
	case KindString:
		if err := writeTagAndKey(w, recordString, key); err != nil {
			return err
		}
		return writeString(w, e.str)

	case KindList:
		if err := writeTagAndKey(w, recordList, key); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(e.list))); err != nil {
			return err
		}
		for _, v := range e.list {
			if err := writeString(w, v); err != nil {
				return err
			}
		}
		return nil

	case KindHash:
		if err := writeTagAndKey(w, recordHash, key); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(e.hash))); err != nil {
			return err
		}
		for field, value := range e.hash {
			if err := writeString(w, field); err != nil {
				return err
			}
			if err := writeString(w, value); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("keyspace: unknown entry kind %d for key %q", e.kind, key)
}

func writeTagAndKey(w io.Writer, tag byte, key string) error {
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	return writeString(w, key)
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func writeUint32(w io.Writer, n uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

// Load clears every store (per spec.md §4.2, "load clears all three stores
// before reading") and then reads records written by Dump, inserting each
// directly into the shard its key hashes to.
func (k *Keyspace) Load(r io.Reader) error {
	k.FlushAll()

	for {
		tag, err := readTag(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		key, err := readString(r)
		if err != nil {
			return err
		}

		e, err := readEntry(r, tag)
		if err != nil {
			return err
		}

		s := k.shardFor(key)
		s.mu.Lock()
		s.entries[key] = e
		s.mu.Unlock()
	}
}

func readTag(r io.Reader) (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}

func readEntry(r io.Reader, tag byte) (*entry, error) {
	switch tag {
	case recordString:
		str, err := readString(r)
		if err != nil {
			return nil, err
		}
		return &entry{kind: KindString, str: str}, nil

	case recordList:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		list := make([]string, n)
		for i := range list {
			v, err := readString(r)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return &entry{kind: KindList, list: list}, nil

	case recordHash:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		hash := make(map[string]string, n)
		for i := uint32(0); i < n; i++ {
			field, err := readString(r)
			if err != nil {
				return nil, err
			}
			value, err := readString(r)
			if err != nil {
				return nil, err
			}
			hash[field] = value
		}
		return &entry{kind: KindHash, hash: hash}, nil
	}

	return nil, fmt.Errorf("keyspace: unknown record tag %q", tag)
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
