package tokenizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	// ErrNotFound is returned by Load when the model file does not exist.
	ErrNotFound = errors.New("tokenizer model not found")

	// ErrSerialization is returned when persisted bytes are corrupt or do not
	// describe a valid tokenizer.
	ErrSerialization = errors.New("tokenizer serialization failure")
)

// Wire layout, protobuf encoding without a version field:
//
//	model  { repeated merge merges = 1; repeated token tokens = 2; }
//	merge  { bytes left = 1; bytes right = 2; bytes token = 3; }
//	token  { uint64 id = 1; bytes text = 2; }
const (
	fieldModelMerge protowire.Number = 1
	fieldModelToken protowire.Number = 2

	fieldMergeLeft  protowire.Number = 1
	fieldMergeRight protowire.Number = 2
	fieldMergeToken protowire.Number = 3

	fieldTokenID   protowire.Number = 1
	fieldTokenText protowire.Number = 2
)

// MarshalBinary encodes the merge rules, in order, and the vocabulary.
func (t *Tokenizer) MarshalBinary() ([]byte, error) {
	var b []byte

	for _, m := range t.merges.rules {
		var mb []byte
		mb = protowire.AppendTag(mb, fieldMergeLeft, protowire.BytesType)
		mb = protowire.AppendString(mb, m.Pair.Left)
		mb = protowire.AppendTag(mb, fieldMergeRight, protowire.BytesType)
		mb = protowire.AppendString(mb, m.Pair.Right)
		mb = protowire.AppendTag(mb, fieldMergeToken, protowire.BytesType)
		mb = protowire.AppendString(mb, m.Token)

		b = protowire.AppendTag(b, fieldModelMerge, protowire.BytesType)
		b = protowire.AppendBytes(b, mb)
	}

	for id, tok := range t.vocab.All() {
		var tb []byte
		tb = protowire.AppendTag(tb, fieldTokenID, protowire.VarintType)
		tb = protowire.AppendVarint(tb, uint64(id))
		tb = protowire.AppendTag(tb, fieldTokenText, protowire.BytesType)
		tb = protowire.AppendString(tb, tok)

		b = protowire.AppendTag(b, fieldModelToken, protowire.BytesType)
		b = protowire.AppendBytes(b, tb)
	}

	return b, nil
}

// Decode reconstructs a tokenizer from bytes produced by MarshalBinary. Errors
// match ErrSerialization.
func Decode(data []byte) (*Tokenizer, error) {
	merges := NewMerges()
	var entries []VocabEntry

	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, payload []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return fmt.Errorf("model field %d: unexpected wire type %d", num, typ)
		}
		switch num {
		case fieldModelMerge:
			m, err := decodeMerge(payload)
			if err != nil {
				return err
			}
			if !merges.Add(m.Pair, m.Token) {
				return fmt.Errorf("duplicate merge rule %q + %q", m.Pair.Left, m.Pair.Right)
			}
		case fieldModelToken:
			e, err := decodeToken(payload)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		default:
			return fmt.Errorf("unknown model field %d", num)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: model has no tokens", ErrSerialization)
	}

	vocab, err := NewVocab(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	return New(merges, vocab), nil
}

func decodeMerge(data []byte) (Merge, error) {
	var m Merge
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, payload []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return fmt.Errorf("merge field %d: unexpected wire type %d", num, typ)
		}
		switch num {
		case fieldMergeLeft:
			m.Pair.Left = string(payload)
		case fieldMergeRight:
			m.Pair.Right = string(payload)
		case fieldMergeToken:
			m.Token = string(payload)
		default:
			return fmt.Errorf("unknown merge field %d", num)
		}
		return nil
	})
	if err != nil {
		return Merge{}, err
	}

	if m.Pair.Left == "" || m.Pair.Right == "" {
		return Merge{}, errors.New("merge rule with empty side")
	}
	if m.Token != m.Pair.Joined() {
		return Merge{}, fmt.Errorf("merge rule %q + %q yields %q", m.Pair.Left, m.Pair.Right, m.Token)
	}
	return m, nil
}

func decodeToken(data []byte) (VocabEntry, error) {
	var (
		e       VocabEntry
		hasID   bool
		hasText bool
	)
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, payload []byte, v uint64) error {
		switch {
		case num == fieldTokenID && typ == protowire.VarintType:
			if v >= uint64(UNK) {
				return fmt.Errorf("token id %d out of range", v)
			}
			e.ID = TokenID(v)
			hasID = true
		case num == fieldTokenText && typ == protowire.BytesType:
			e.Token = string(payload)
			hasText = true
		default:
			return fmt.Errorf("unexpected token field %d with wire type %d", num, typ)
		}
		return nil
	})
	if err != nil {
		return VocabEntry{}, err
	}
	if !hasID || !hasText {
		return VocabEntry{}, errors.New("token entry missing id or text")
	}
	return e, nil
}

// consumeFields walks the top-level fields of a protobuf message. Only varint
// and length-delimited fields are accepted; payload holds the bytes of the
// latter and v the value of the former.
func consumeFields(data []byte, fn func(num protowire.Number, typ protowire.Type, payload []byte, v uint64) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		var (
			payload []byte
			v       uint64
		)
		switch typ {
		case protowire.VarintType:
			v, n = protowire.ConsumeVarint(data)
		case protowire.BytesType:
			payload, n = protowire.ConsumeBytes(data)
		default:
			return fmt.Errorf("field %d: unsupported wire type %d", num, typ)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		data = data[n:]

		if err := fn(num, typ, payload, v); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the tokenizer to path, replacing any existing file. The write is
// not atomic: a failure can leave a partial file behind.
func (t *Tokenizer) Save(path string) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	// #nosec G306 -- model files are not secret.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write tokenizer %q: %w", path, err)
	}
	return nil
}

// Load reads a tokenizer written by Save. A missing file yields an error
// matching both ErrNotFound and fs.ErrNotExist; undecodable content yields
// ErrSerialization.
func Load(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("read tokenizer %q: %w", path, err)
	}

	t, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}
	return t, nil
}
