package testutil

import (
	"context"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
	"github.com/Agrid-Dev/coldload/internal/store"
)

// FakeColdRoomService is a reusable fake implementing ports.ColdRoomService.
// Put ONLY what multiple test packages need here.
type FakeColdRoomService struct {
	ID      string
	Records map[store.RecordName]coldroom.Record

	R   coldroom.LoadResult
	Err error

	SetRecordCalled bool
	SetRecordName   store.RecordName
	SetRecordArg    coldroom.Record
	SetRecordErr    error

	SetFieldCalled bool
	SetFieldName   store.RecordName
	SetFieldKey    string
	SetFieldValue  any
	SetFieldErr    error

	CalculateCalled bool
	CalculateArg    coldroom.Inputs
}

// NewFakeColdRoomService starts with empty records and the default result.
func NewFakeColdRoomService() *FakeColdRoomService {
	f := &FakeColdRoomService{
		ID:      "default",
		Records: map[store.RecordName]coldroom.Record{},
	}
	f.recompute()
	return f
}

func (f *FakeColdRoomService) recompute() {
	f.R, f.Err = coldroom.Calculate(f.Inputs())
}

func (f *FakeColdRoomService) ProjectID() string { return f.ID }

func (f *FakeColdRoomService) Inputs() coldroom.Inputs {
	return coldroom.Inputs{
		Room:       coldroom.MergeRecords(f.Records[store.RecordRoom], f.Records[store.RecordConstruction]),
		Conditions: coldroom.MergeRecords(f.Records[store.RecordConditions]),
		Product:    coldroom.MergeRecords(f.Records[store.RecordProduct]),
	}
}

func (f *FakeColdRoomService) Record(name store.RecordName) coldroom.Record {
	return coldroom.MergeRecords(f.Records[name])
}

func (f *FakeColdRoomService) SetRecord(_ context.Context, name store.RecordName, rec coldroom.Record) error {
	f.SetRecordCalled = true
	f.SetRecordName = name
	f.SetRecordArg = rec
	if f.SetRecordErr != nil {
		return f.SetRecordErr
	}
	f.Records[name] = coldroom.MergeRecords(rec)
	f.recompute()
	return nil
}

func (f *FakeColdRoomService) SetField(_ context.Context, name store.RecordName, key string, value any) error {
	f.SetFieldCalled = true
	f.SetFieldName = name
	f.SetFieldKey = key
	f.SetFieldValue = value
	if f.SetFieldErr != nil {
		return f.SetFieldErr
	}
	f.Records[name] = coldroom.MergeRecords(f.Records[name], coldroom.Record{key: value})
	f.recompute()
	return nil
}

func (f *FakeColdRoomService) Result() (coldroom.LoadResult, error) { return f.R, f.Err }

func (f *FakeColdRoomService) Calculate(in coldroom.Inputs) (coldroom.LoadResult, error) {
	f.CalculateCalled = true
	f.CalculateArg = in
	return coldroom.Calculate(in)
}
