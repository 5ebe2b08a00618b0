package httpctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
	"github.com/Agrid-Dev/coldload/internal/ports"
	"github.com/Agrid-Dev/coldload/internal/report"
	"github.com/Agrid-Dev/coldload/internal/store"
)

type Server struct {
	svc ports.ColdRoomService
	srv *http.Server

	// PushInterval is how often the websocket feed checks for a new result.
	PushInterval time.Duration
	now          func() time.Time
}

// New returns a runnable server.
func New(svc ports.ColdRoomService, addr string) *Server {
	mux := http.NewServeMux()
	s := &Server{svc: svc, PushInterval: time.Second, now: time.Now}

	// Read
	mux.HandleFunc("GET /v1", s.handleGet)
	mux.HandleFunc("GET /v1/result", s.handleGetResult)
	mux.HandleFunc("GET /v1/inputs", s.handleGetInputs)
	mux.HandleFunc("GET /v1/records/{name}", s.handleGetRecord)

	// Write: whole record, or one field at a time
	mux.HandleFunc("PUT /v1/records/{name}", s.handlePutRecord)
	mux.HandleFunc("POST /v1/records/{name}/{field}", s.handlePostField)

	// Stateless
	mux.HandleFunc("POST /v1/calculate", s.handleCalculate)

	// Reports
	mux.HandleFunc("GET /v1/report", s.handleReportJSON)
	mux.HandleFunc("GET /v1/report.txt", s.handleReportText)
	mux.HandleFunc("GET /v1/report.pdf", s.handleReportPDF)
	mux.HandleFunc("GET /v1/report.xlsx", s.handleReportXLSX)

	mux.HandleFunc("GET /v1/ws", s.handleWS)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routes, mainly for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ---- DTOs ----

type summaryDTO struct {
	ProjectID string  `json:"project_id"`
	OK        bool    `json:"ok"`
	FinalLoad float64 `json:"final_load_kw"`
	TotalTR   float64 `json:"total_tr"`
	Error     string  `json:"error,omitempty"`
}

type errorDTO struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// calculateRequest is the stateless body; construction is merged over room.
type calculateRequest struct {
	Room         coldroom.Record `json:"room"`
	Conditions   coldroom.Record `json:"conditions"`
	Construction coldroom.Record `json:"construction"`
	Product      coldroom.Record `json:"product"`
}

func (r calculateRequest) inputs() coldroom.Inputs {
	return coldroom.Inputs{
		Room:       coldroom.MergeRecords(r.Room, r.Construction),
		Conditions: r.Conditions,
		Product:    r.Product,
	}
}

// ---- Handlers ----

func (s *Server) handleGet(w http.ResponseWriter, _ *http.Request) {
	dto := summaryDTO{ProjectID: s.svc.ProjectID()}
	r, err := s.svc.Result()
	if err != nil {
		dto.Error = err.Error()
	} else {
		dto.OK = true
		dto.FinalLoad = r.FinalLoad
		dto.TotalTR = r.TotalTR
	}
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleGetResult(w http.ResponseWriter, _ *http.Request) {
	s.respondResult(w)
}

func (s *Server) handleGetInputs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Inputs())
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	name, ok := recordName(w, r)
	if !ok {
		return
	}
	rec := s.svc.Record(name)
	if rec == nil {
		rec = coldroom.Record{}
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	name, ok := recordName(w, r)
	if !ok {
		return
	}
	var rec coldroom.Record
	if err := decodeBody(r, &rec); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.svc.SetRecord(r.Context(), name, rec); err != nil {
		writeServiceErr(w, err)
		return
	}
	s.respondResult(w)
}

func (s *Server) handlePostField(w http.ResponseWriter, r *http.Request) {
	name, ok := recordName(w, r)
	if !ok {
		return
	}
	field := r.PathValue("field")
	// body: {"value": 35}
	postValue(s, w, r, func(v any) error {
		return s.svc.SetField(r.Context(), name, field, v)
	})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := s.svc.Calculate(req.inputs())
	if err != nil {
		writeCalcErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) currentReport(w http.ResponseWriter) (report.Report, bool) {
	res, err := s.svc.Result()
	if err != nil {
		writeCalcErr(w, err)
		return report.Report{}, false
	}
	return report.New(s.svc.ProjectID(), s.svc.Inputs(), res, s.now()), true
}

func (s *Server) handleReportJSON(w http.ResponseWriter, _ *http.Request) {
	rep, ok := s.currentReport(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportText(w http.ResponseWriter, _ *http.Request) {
	s.writeReport(w, "text/plain; charset=utf-8", "", report.WriteText)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, _ *http.Request) {
	s.writeReport(w, "application/pdf", "coldroom-report.pdf", report.WritePDF)
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, _ *http.Request) {
	s.writeReport(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "coldroom-report.xlsx", report.WriteXLSX)
}

// writeReport renders into a buffer first so a render failure can still
// produce a clean error response.
func (s *Server) writeReport(w http.ResponseWriter, contentType, filename string, render report.Renderer) {
	rep, ok := s.currentReport(w)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render(&buf, rep); err != nil {
		log.WithFields(log.Fields{"project": rep.ProjectID, "error": err}).Error("render report")
		writeErr(w, http.StatusInternalServerError, "report generation error")
		return
	}
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ---- generic helpers ----

func (s *Server) respondResult(w http.ResponseWriter) {
	res, err := s.svc.Result()
	if err != nil {
		writeCalcErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func recordName(w http.ResponseWriter, r *http.Request) (store.RecordName, bool) {
	name, err := store.ParseRecordName(r.PathValue("name"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err.Error())
		return store.RecordUnknown, false
	}
	return name, true
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func postValue[T any](s *Server, w http.ResponseWriter, r *http.Request, apply func(T) error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var req struct {
		Value *T `json:"value"`
	}
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Value == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'value'")
		return
	}

	if err := apply(*req.Value); err != nil {
		writeServiceErr(w, err)
		return
	}

	s.respondResult(w)
}

// calcStatus maps engine errors: bad values are the caller's fault (400),
// values that are each fine but contradict each other are 422.
func calcStatus(err error) int {
	switch {
	case errors.Is(err, coldroom.ErrInconsistentInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, coldroom.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeCalcErr(w http.ResponseWriter, err error) {
	dto := errorDTO{Error: err.Error()}
	var fe *coldroom.FieldError
	if errors.As(err, &fe) {
		dto.Field = fe.Field
	}
	writeJSON(w, calcStatus(err), dto)
}

func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUnknownRecord):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidProjectID):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		log.WithField("error", err).Error("store record")
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorDTO{Error: msg})
}
