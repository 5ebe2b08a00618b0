package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownRecord     = errors.New("unknown record name")
	ErrUnknownBackend    = errors.New("unknown store backend")
	ErrInvalidProjectID  = errors.New("invalid project id")
	ErrUnsupportedFormat = errors.New("unsupported record format")
)

// RecordName identifies one of the form records kept per project.
type RecordName int

const (
	RecordUnknown RecordName = iota
	RecordRoom
	RecordConditions
	RecordConstruction
	RecordProduct
)

// RecordNames lists every stored record in load order.
var RecordNames = []RecordName{RecordRoom, RecordConditions, RecordConstruction, RecordProduct}

func (r RecordName) Valid() bool {
	return r >= RecordRoom && r <= RecordProduct
}

func (r RecordName) String() string {
	switch r {
	case RecordRoom:
		return "room"
	case RecordConditions:
		return "conditions"
	case RecordConstruction:
		return "construction"
	case RecordProduct:
		return "product"
	default:
		return "unknown"
	}
}

// Key is the storage key the form layer writes the record under.
func (r RecordName) Key() string {
	switch r {
	case RecordRoom:
		return "coldRoomData"
	case RecordConditions:
		return "coldRoomConditionsData"
	case RecordConstruction:
		return "coldRoomConstructionData"
	case RecordProduct:
		return "coldRoomProductData"
	default:
		return ""
	}
}

// ParseRecordName accepts the short name ("room") or the storage key
// ("coldRoomData"), case-insensitively.
func ParseRecordName(s string) (RecordName, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, r := range RecordNames {
		if v == r.String() || v == strings.ToLower(r.Key()) {
			return r, nil
		}
	}
	return RecordUnknown, fmt.Errorf("%w: %q", ErrUnknownRecord, s)
}

// Store persists form records per project.
type Store interface {
	// Load returns ErrNotFound when the record was never saved.
	Load(ctx context.Context, projectID string, name RecordName) (coldroom.Record, error)
	Save(ctx context.Context, projectID string, name RecordName, rec coldroom.Record) error
	Delete(ctx context.Context, projectID string, name RecordName) error
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
)

func checkArgs(projectID string, name RecordName) error {
	if strings.TrimSpace(projectID) == "" || strings.ContainsAny(projectID, `/\:`) || projectID == "." || projectID == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidProjectID, projectID)
	}
	if !name.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRecord, int(name))
	}
	return nil
}

func cloneRecord(r coldroom.Record) coldroom.Record {
	if r == nil {
		return nil
	}
	return coldroom.MergeRecords(r)
}
