package project

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
	"github.com/Agrid-Dev/coldload/internal/store"
)

var ErrNoResult = errors.New("no result computed yet")

// Service owns the stored records of one cold-room project and keeps the
// load result in step with them.
type Service struct {
	id     string
	store  store.Store
	engine *coldroom.Engine

	mu      sync.RWMutex
	records map[store.RecordName]coldroom.Record
	result  coldroom.LoadResult
	err     error
}

func New(ctx context.Context, id string, st store.Store, engine *coldroom.Engine) (*Service, error) {
	if st == nil {
		return nil, errors.New("project: nil store")
	}
	if engine == nil {
		engine, _ = coldroom.New(coldroom.DefaultReference())
	}
	s := &Service{
		id:      id,
		store:   st,
		engine:  engine,
		records: map[store.RecordName]coldroom.Record{},
		err:     ErrNoResult,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) ProjectID() string { return s.id }

// Reload reads every record from the store and recomputes. A record that was
// never saved is treated as empty so its fields fall back to defaults.
func (s *Service) Reload(ctx context.Context) error {
	records := make(map[store.RecordName]coldroom.Record, len(store.RecordNames))
	for _, name := range store.RecordNames {
		rec, err := s.store.Load(ctx, s.id, name)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load %s: %w", name, err)
		}
		records[name] = rec
	}

	s.mu.Lock()
	s.records = records
	s.recomputeLocked()
	s.mu.Unlock()
	return nil
}

func (s *Service) Inputs() coldroom.Inputs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputsLocked()
}

func (s *Service) inputsLocked() coldroom.Inputs {
	return coldroom.Inputs{
		Room:       coldroom.MergeRecords(s.records[store.RecordRoom], s.records[store.RecordConstruction]),
		Conditions: coldroom.MergeRecords(s.records[store.RecordConditions]),
		Product:    coldroom.MergeRecords(s.records[store.RecordProduct]),
	}
}

// Record returns a copy of the named record as stored.
func (s *Service) Record(name store.RecordName) coldroom.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return coldroom.MergeRecords(s.records[name])
}

func (s *Service) SetRecord(ctx context.Context, name store.RecordName, rec coldroom.Record) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %v", store.ErrUnknownRecord, name)
	}
	rec = coldroom.MergeRecords(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, s.id, name, rec); err != nil {
		return err
	}
	s.records[name] = rec
	s.recomputeLocked()
	return nil
}

// SetField updates one key of a record, keeping the others.
func (s *Service) SetField(ctx context.Context, name store.RecordName, key string, value any) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %v", store.ErrUnknownRecord, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := coldroom.MergeRecords(s.records[name], coldroom.Record{key: value})
	if err := s.store.Save(ctx, s.id, name, rec); err != nil {
		return err
	}
	s.records[name] = rec
	s.recomputeLocked()
	return nil
}

func (s *Service) Result() (coldroom.LoadResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.err
}

func (s *Service) Calculate(in coldroom.Inputs) (coldroom.LoadResult, error) {
	return s.engine.Calculate(in)
}

func (s *Service) recomputeLocked() {
	r, err := s.engine.Calculate(s.inputsLocked())
	if err != nil {
		if s.err == nil || s.err.Error() != err.Error() {
			log.WithFields(log.Fields{
				"project": s.id,
				"error":   err,
			}).Warn("cooling load not computed")
		}
		s.result, s.err = coldroom.LoadResult{}, err
		return
	}
	if s.err != nil || s.result.FinalLoad != r.FinalLoad {
		log.WithFields(log.Fields{
			"project":   s.id,
			"finalLoad": r.FinalLoad,
			"totalTR":   r.TotalTR,
		}).Info("cooling load updated")
	}
	s.result, s.err = r, nil
}

// Run reloads the records on every tick so edits made by other writers to
// the shared store show up in the result.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil && ctx.Err() == nil {
				log.WithFields(log.Fields{
					"project": s.id,
					"error":   err,
				}).Error("reload records")
			}
		}
	}
}
