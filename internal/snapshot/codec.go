package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrCorruptSnapshot is returned when a persisted payload cannot be parsed
// or does not have the snapshot shape.
var ErrCorruptSnapshot = errors.New("snapshot: corrupt payload")

//go:embed schema.json
var schemaDoc []byte

const schemaURL = "snapshot.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDoc))
		if err != nil {
			compileErr = fmt.Errorf("parsing snapshot schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("adding snapshot schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Encode renders s in the persisted JSON format.
func Encode(s Snapshot) ([]byte, error) {
	if s.Devices == nil {
		s.Devices = []Entry{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a persisted payload. Any parse or shape failure is
// reported as ErrCorruptSnapshot.
func Decode(data []byte) (Snapshot, error) {
	sch, err := schema()
	if err != nil {
		return Snapshot{}, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := sch.Validate(inst); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return w.snapshot(), nil
}

// wireSnapshot reads numbers as written by any JSON encoder, so 1.0 and
// 1.7e12 decode like 1 and 1700000000000.
type wireSnapshot struct {
	Devices   []wireEntry `json:"devices"`
	Timestamp json.Number `json:"timestamp"`
}

type wireEntry struct {
	ID     json.Number `json:"id"`
	Status bool        `json:"status"`
	Value  *float64    `json:"value"`
}

func (w wireSnapshot) snapshot() Snapshot {
	s := Snapshot{
		Devices:   make([]Entry, len(w.Devices)),
		Timestamp: toInt64(w.Timestamp),
	}
	for i, e := range w.Devices {
		s.Devices[i] = Entry{ID: int(toInt64(e.ID)), Status: e.Status, Value: e.Value}
	}
	return s
}

// toInt64 truncates n. Empty or out-of-range numbers yield 0.
func toInt64(n json.Number) int64 {
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.Abs(f) >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}
