package ports

import (
	"context"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
	"github.com/Agrid-Dev/coldload/internal/store"
)

// ColdRoomService is the control-plane port used by controllers (HTTP/MQTT/Modbus).
type ColdRoomService interface {
	ProjectID() string
	Inputs() coldroom.Inputs
	Record(store.RecordName) coldroom.Record
	SetRecord(ctx context.Context, name store.RecordName, rec coldroom.Record) error
	SetField(ctx context.Context, name store.RecordName, key string, value any) error
	// Result returns the last computed result, or the error that prevented it.
	Result() (coldroom.LoadResult, error)
	// Calculate runs the engine on in without touching stored records.
	Calculate(in coldroom.Inputs) (coldroom.LoadResult, error)
}
