package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/JonMunkholm/caredata/internal/logging"
	"github.com/google/uuid"
)

// Paths locates the four record files.
type Paths struct {
	Hospitals  string
	Providers  string
	Patients   string
	Treatments string
}

// PathsIn returns the default file locations inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		Hospitals:  filepath.Join(dir, MustLookup(KindHospital).FileName),
		Providers:  filepath.Join(dir, MustLookup(KindProvider).FileName),
		Patients:   filepath.Join(dir, MustLookup(KindPatient).FileName),
		Treatments: filepath.Join(dir, MustLookup(KindTreatment).FileName),
	}
}

// Recorder receives load, save and edit observations, typically for metrics.
type Recorder interface {
	RecordLoad(kind Kind, loaded, rejected int, elapsed time.Duration)
	RecordSave(err error)
	RecordEdit(outcome EditOutcome)
}

// Mirror receives every freshly loaded dataset, e.g. to copy it into a
// database for reporting. The record files stay the source of truth.
type Mirror interface {
	SyncSnapshot(ctx context.Context, ds *Dataset) error
}

// Journal keeps a history of edits.
type Journal interface {
	RecordEdit(ctx context.Context, outcome EditOutcome) error
}

// Service loads the record files as one consistent dataset and applies
// treatment edits through a single writer.
type Service struct {
	paths    Paths
	gate     *WriteGate
	recorder Recorder
	mirror   Mirror
	journal  Journal
	now      func() time.Time

	historyMu sync.Mutex
	history   []EditOutcome
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithMirror sets the dataset mirror.
func WithMirror(m Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

// WithJournal sets the edit journal.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithWriteWait sets how long an edit waits for the writer.
func WithWriteWait(d time.Duration) Option {
	return func(s *Service) { s.gate = NewWriteGate(d) }
}

// NewService creates a Service over the given files.
func NewService(paths Paths, opts ...Option) *Service {
	s := &Service{
		paths:    paths,
		gate:     NewWriteGate(DefaultWriteWait),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Paths returns the files the service reads and writes.
func (s *Service) Paths() Paths {
	return s.paths
}

// WriterBusy reports whether an edit is currently being saved.
func (s *Service) WriterBusy() bool {
	return s.gate.Busy()
}

// WaitForWrites blocks until an in-flight edit completes or ctx is done.
func (s *Service) WaitForWrites(ctx context.Context) error {
	return s.gate.WaitForDrain(ctx)
}

// Snapshot loads all four files. Hospitals, providers and patients load
// first; treatments are validated against them.
//
// Malformed rows and I/O errors fail the snapshot. Invalid records are
// dropped, logged, and listed in Dataset.Rejected. The mirror is not touched.
func (s *Service) Snapshot(ctx context.Context) (*Dataset, error) {
	return s.snapshot(ctx, false)
}

// Refresh loads like Snapshot and then hands the dataset to the mirror, if
// one is configured. Call it at startup; edits refresh the mirror themselves.
func (s *Service) Refresh(ctx context.Context) (*Dataset, error) {
	return s.snapshot(ctx, true)
}

func (s *Service) snapshot(ctx context.Context, syncMirror bool) (*Dataset, error) {
	logger := logging.FromContext(ctx)
	ds := &Dataset{}

	start := time.Now()
	hospitals, err := LoadHospitals(s.paths.Hospitals)
	if err != nil {
		return nil, fmt.Errorf("load hospitals: %w", err)
	}
	ds.Hospitals = hospitals.Records
	s.observe(logger, KindHospital, len(hospitals.Records), hospitals.Rejected, time.Since(start))
	ds.Rejected = append(ds.Rejected, hospitals.Rejected...)

	start = time.Now()
	providers, err := LoadProviders(s.paths.Providers)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	ds.Providers = providers.Records
	s.observe(logger, KindProvider, len(providers.Records), providers.Rejected, time.Since(start))
	ds.Rejected = append(ds.Rejected, providers.Rejected...)

	start = time.Now()
	patients, err := LoadPatients(s.paths.Patients)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	ds.Patients = patients.Records
	s.observe(logger, KindPatient, len(patients.Records), patients.Rejected, time.Since(start))
	ds.Rejected = append(ds.Rejected, patients.Rejected...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	treatments, err := LoadTreatments(s.paths.Treatments, ds.Hospitals, ds.Providers, ds.Patients)
	if err != nil {
		return nil, fmt.Errorf("load treatments: %w", err)
	}
	ds.Treatments = treatments.Records
	s.observe(logger, KindTreatment, len(treatments.Records), treatments.Rejected, time.Since(start))
	ds.Rejected = append(ds.Rejected, treatments.Rejected...)

	ds.LoadedAt = s.now()

	if syncMirror && s.mirror != nil {
		if err := s.mirror.SyncSnapshot(ctx, ds); err != nil {
			logger.Warn("dataset mirror failed", "error", err)
		}
	}

	return ds, nil
}

// observe logs the rejections of one loader and records the load.
func (s *Service) observe(logger *slog.Logger, kind Kind, loaded int, rejected []Rejection, elapsed time.Duration) {
	for _, r := range rejected {
		logger.Info("record dropped",
			"kind", kind,
			"line", r.Line,
			"reason", r.Reason(),
		)
	}
	logger.Debug("records loaded",
		"kind", kind,
		"loaded", loaded,
		"rejected", len(rejected),
		"duration_ms", elapsed.Milliseconds(),
	)
	s.recorder.RecordLoad(kind, loaded, len(rejected), elapsed)
}

// EditTreatment overwrites the treatment at index in the current validated
// view, saves the collection and returns the reloaded dataset.
//
// An out-of-range index is not an error: the outcome reports Applied=false
// and the collection is saved unchanged. Values rejected by
// CheckTreatmentFields fail before the file is read or written.
func (s *Service) EditTreatment(ctx context.Context, index int, values Treatment) (*Dataset, EditOutcome, error) {
	if err := CheckTreatmentFields(values); err != nil {
		return nil, EditOutcome{}, err
	}
	return s.mutate(ctx, func(ts []Treatment) ([]Treatment, EditOutcome) {
		return ApplyEdit(ts, index, values)
	})
}

// AppendTreatment adds a treatment to the current validated view, saves the
// collection and returns the reloaded dataset. Values are checked the same
// way as in EditTreatment.
func (s *Service) AppendTreatment(ctx context.Context, values Treatment) (*Dataset, EditOutcome, error) {
	if err := CheckTreatmentFields(values); err != nil {
		return nil, EditOutcome{}, err
	}
	return s.mutate(ctx, func(ts []Treatment) ([]Treatment, EditOutcome) {
		return ApplyAppend(ts, values)
	})
}

// mutate runs one load-apply-save-reload cycle under the write gate.
func (s *Service) mutate(ctx context.Context, apply func([]Treatment) ([]Treatment, EditOutcome)) (*Dataset, EditOutcome, error) {
	if err := s.gate.Acquire(ctx); err != nil {
		return nil, EditOutcome{}, err
	}
	defer s.gate.Release()

	current, err := s.snapshot(ctx, false)
	if err != nil {
		return nil, EditOutcome{}, err
	}

	treatments, outcome := apply(current.Treatments)

	meta := RequestMetaFromContext(ctx)
	outcome.ID = uuid.New().String()
	outcome.At = s.now()
	outcome.IPAddress = meta.IPAddress
	outcome.UserAgent = meta.UserAgent

	logger := logging.WithFields(ctx, "edit_id", outcome.ID, "action", outcome.Action)

	err = SaveTreatments(s.paths.Treatments, treatments)
	s.recorder.RecordSave(err)
	if err != nil {
		return nil, outcome, err
	}

	s.recorder.RecordEdit(outcome)
	if outcome.Applied {
		logger.Info("treatment saved", "index", outcome.Index, "count", outcome.Count)
	} else {
		logger.Warn("treatment edit ignored", "index", outcome.Index, "reason", outcome.Reason)
	}

	s.remember(outcome)
	if s.journal != nil {
		if err := s.journal.RecordEdit(ctx, outcome); err != nil {
			logger.Warn("edit journal failed", "error", err)
		}
	}

	// Stale in-memory state is discarded; the saved file is reloaded whole.
	fresh, err := s.snapshot(ctx, true)
	if err != nil {
		return nil, outcome, err
	}
	return fresh, outcome, nil
}

type nopRecorder struct{}

func (nopRecorder) RecordLoad(Kind, int, int, time.Duration) {}
func (nopRecorder) RecordSave(error)                          {}
func (nopRecorder) RecordEdit(EditOutcome)                    {}
