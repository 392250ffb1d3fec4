package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/caredata/internal/core"
)

// maxBodyBytes caps treatment request bodies.
const maxBodyBytes = 64 << 10

var errInvalidRequest = errors.New("invalid request")

// ListResponse wraps a validated view of one record kind.
type ListResponse[T any] struct {
	Kind     core.Kind `json:"kind"`
	Records  []T       `json:"records"`
	Count    int       `json:"count"`
	Rejected int       `json:"rejected"`
	LoadedAt time.Time `json:"loadedAt"`
}

// TreatmentView is a treatment with its position, which edits address.
type TreatmentView struct {
	Index int `json:"index"`
	core.Treatment
	DischargedAt string `json:"dischargedAt,omitempty"`
}

// TreatmentRequest is the body of POST /api/treatments and
// PUT /api/treatments/{index}. Values are stored as given; an invalid
// treatment is saved and then dropped by the reload.
type TreatmentRequest struct {
	Details      string `json:"details"`
	Hospital     string `json:"hospital"`
	Provider     string `json:"provider"`
	Patient      string `json:"patient"`
	DischargedAt string `json:"dischargedAt"`
}

// EditResponse reports an edit or append and the state after the reload.
type EditResponse struct {
	Outcome    core.EditOutcome `json:"outcome"`
	Treatments int              `json:"treatments"` // validated count after reload
	Rejected   int              `json:"rejected"`   // dropped treatments after reload
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":     "ok",
		"writerBusy": s.service.WriterBusy(),
	})
}

// handleListKinds returns the registered record layouts.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, core.Schemas())
}

func (s *Server) handleHospitals(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, listOf(core.KindHospital, ds, ds.Hospitals))
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, listOf(core.KindProvider, ds, ds.Providers))
}

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, listOf(core.KindPatient, ds, ds.Patients))
}

// handleTreatments returns validated treatments with the positions that
// PUT /api/treatments/{index} expects.
func (s *Server) handleTreatments(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	views := make([]TreatmentView, len(ds.Treatments))
	for i, t := range ds.Treatments {
		views[i] = TreatmentView{Index: i, Treatment: t, DischargedAt: core.FormatDischarge(t.DischargedAt)}
	}
	writeJSON(w, r, http.StatusOK, listOf(core.KindTreatment, ds, views))
}

// handleRejections lists dropped records, optionally filtered by ?kind=.
func (s *Server) handleRejections(w http.ResponseWriter, r *http.Request) {
	kind := core.Kind(strings.ToLower(r.URL.Query().Get("kind")))
	if kind != "" {
		if _, ok := core.Lookup(kind); !ok {
			respondError(w, r, fmt.Errorf("unknown record kind %q: %w", kind, errInvalidRequest), http.StatusBadRequest)
			return
		}
	}

	ds, err := s.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	rejected := make([]core.Rejection, 0, len(ds.Rejected))
	for _, rej := range ds.Rejected {
		if kind == "" || rej.Kind == kind {
			rejected = append(rejected, rej)
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"rejections": rejected,
		"count":      len(rejected),
	})
}

// handleEdits lists recent treatment edits, newest first. ?limit= is clamped
// by the service.
func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, fmt.Errorf("limit %q: %w", v, errInvalidRequest), http.StatusBadRequest)
			return
		}
		limit = n
	}

	edits, err := s.service.RecentEdits(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if edits == nil {
		edits = []core.EditOutcome{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"edits": edits,
		"count": len(edits),
	})
}

// handleAppendTreatment adds a treatment and saves the collection.
func (s *Server) handleAppendTreatment(w http.ResponseWriter, r *http.Request) {
	values, err := decodeTreatment(w, r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	ds, outcome, err := s.service.AppendTreatment(ctx, values)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusCreated, editResponse(ds, outcome))
}

// handleEditTreatment overwrites the treatment at {index}. An index past the
// end is reported with applied=false rather than an error status.
func (s *Server) handleEditTreatment(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, r, fmt.Errorf("index %q: %w", chi.URLParam(r, "index"), errInvalidRequest), http.StatusBadRequest)
		return
	}

	values, err := decodeTreatment(w, r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	ds, outcome, err := s.service.EditTreatment(ctx, index, values)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, editResponse(ds, outcome))
}

// decodeTreatment reads a TreatmentRequest. A non-empty discharge value that
// no known layout parses is rejected, since saving it would silently drop it.
// Values holding line breaks, commas or double quotes are rejected as well.
func decodeTreatment(w http.ResponseWriter, r *http.Request) (core.Treatment, error) {
	var req TreatmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return core.Treatment{}, fmt.Errorf("%w: body: %v", errInvalidRequest, err)
	}

	t := core.Treatment{
		Details:  strings.TrimSpace(req.Details),
		Hospital: strings.TrimSpace(req.Hospital),
		Provider: strings.TrimSpace(req.Provider),
		Patient:  strings.TrimSpace(req.Patient),
	}
	if strings.TrimSpace(req.DischargedAt) != "" {
		t.DischargedAt = core.ParseDischarge(req.DischargedAt)
		if t.DischargedAt == nil {
			return core.Treatment{}, fmt.Errorf("%w: dischargedAt %q is not a recognized timestamp", errInvalidRequest, req.DischargedAt)
		}
	}
	if err := core.CheckTreatmentFields(t); err != nil {
		return core.Treatment{}, fmt.Errorf("%w: %w", errInvalidRequest, err)
	}
	return t, nil
}

func listOf[T any](kind core.Kind, ds *core.Dataset, records []T) ListResponse[T] {
	if records == nil {
		records = []T{}
	}
	return ListResponse[T]{
		Kind:     kind,
		Records:  records,
		Count:    len(records),
		Rejected: ds.RejectedCount(kind),
		LoadedAt: ds.LoadedAt,
	}
}

func editResponse(ds *core.Dataset, outcome core.EditOutcome) EditResponse {
	return EditResponse{
		Outcome:    outcome,
		Treatments: len(ds.Treatments),
		Rejected:   ds.RejectedCount(core.KindTreatment),
	}
}
