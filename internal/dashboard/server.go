/*
PURPOSE:
  Browser dashboard. One page with the input form and the last report,
  plus the CSV download.

REQUIREMENTS:
  User-specified:
  - Paste a sequence and/or upload a CSV, pick a model and its options, Run.
  - Show a results table, the success count and per-sequence failures.
  - Download the report as {model}_results.csv.
  - A missing service URL is a visible configuration error, not a crash.
  - A run where every sequence failed clears the previous report.

  Implementation-discovered:
  - Post/Redirect/Get so a browser refresh does not resubmit a batch.
  - Per-browser state lives in an in-memory session keyed by a cookie.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (serve)
  - Uses: internal/normalize, internal/batch (through Runner), internal/output

ERROR HANDLING:
  - Configuration/Validation errors become an error notice on the page.
  - Per-sequence failures are listed under the table.

IMPLEMENTATION RULES:
  - net/http ServeMux with method patterns.
  - html/template, templates embedded in the binary.

USAGE:
  srv := dashboard.New(cfg, runner, nil)
  err := srv.ListenAndServe(ctx)

SELF-HEALING INSTRUCTIONS:
  - If uploads fail with "request body too large", raise maxUploadBytes.

RELATED FILES:
  - internal/dashboard/session.go
  - internal/dashboard/templates/index.html

MAINTENANCE:
  - Update when a model gains options (form fields and parseOptions).
*/

package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/daryltucker/seqdash/internal/config"
	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
	"github.com/daryltucker/seqdash/internal/normalize"
	"github.com/daryltucker/seqdash/internal/output"
)

const maxUploadBytes = 32 << 20

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Runner executes one batch. *batch.Runner implements it.
type Runner interface {
	Run(ctx context.Context, req model.BatchRequest) (model.BatchResult, error)
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg       *config.Config
	runner    Runner
	configErr error
	sessions  *Store
}

// New creates a Server. When configErr is set every page shows it and runs
// are refused; runner may then be nil.
func New(cfg *config.Config, runner Runner, configErr error) *Server {
	return &Server{cfg: cfg, runner: runner, configErr: configErr, sessions: NewStore()}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /report.csv", s.handleReport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return logRequests(mux)
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		output.Logger.Info("Dashboard listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	output.Logger.Info("Shutting down dashboard")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type modelChoice struct {
	Kind     model.Kind
	Name     string
	Selected bool
}

type reportView struct {
	Model    string
	Filename string
	Columns  []string
	Rows     [][]string
	Count    int
}

type pageData struct {
	ConfigError     string
	Models          []modelChoice
	Model           model.Kind
	Options         model.Options
	Notice          *Notice
	Report          *reportView
	SequenceColumns string
	IDColumns       string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)

	data := pageData{
		SequenceColumns: strings.Join(normalize.SequenceColumns, ", "),
		IDColumns:       strings.Join(normalize.IDColumns, ", "),
	}
	if s.configErr != nil {
		data.ConfigError = s.configErr.Error()
	}
	s.sessions.Update(sess, func(sess *Session) {
		data.Model = sess.Model
		data.Options = sess.Options
		data.Notice = sess.Notice
		sess.Notice = nil
		if sess.Report != nil {
			res := sess.Report.Result
			cols := output.Columns(res.Rows)
			rv := &reportView{
				Model:    res.Model.DisplayName(),
				Filename: sess.Report.Filename,
				Columns:  cols,
				Count:    len(res.Rows),
			}
			for _, row := range res.Rows {
				rv.Rows = append(rv.Rows, output.Cells(row, cols))
			}
			data.Report = rv
		}
	})
	for _, k := range model.Kinds() {
		data.Models = append(data.Models, modelChoice{Kind: k, Name: k.DisplayName(), Selected: k == data.Model})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		output.Logger.Error("Failed to render page", "error", err)
	}
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	defer http.Redirect(w, r, "/", http.StatusSeeOther)

	fail := func(err error, failures []string) {
		s.sessions.Update(sess, func(sess *Session) {
			sess.Report = nil
			sess.Notice = &Notice{Level: "error", Text: err.Error(), Failures: failures}
		})
	}

	if s.configErr != nil {
		fail(s.configErr, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !stderrors.Is(err, http.ErrNotMultipart) {
		fail(errors.Wrap(errors.Validation, "could not read the submitted form", err), nil)
		return
	}

	kind, err := model.ParseKind(r.FormValue("model"))
	if err != nil {
		fail(errors.Wrap(errors.Validation, "choose a model", err), nil)
		return
	}
	opts, err := parseOptions(r)
	s.sessions.Update(sess, func(sess *Session) {
		sess.Model = kind
		if err == nil {
			sess.Options = opts
		}
	})
	if err != nil {
		fail(err, nil)
		return
	}

	upload, err := formUpload(r)
	if err != nil {
		fail(err, nil)
		return
	}
	seqs, err := normalize.Gather(r.FormValue("sequence"), upload)
	if err != nil {
		fail(err, nil)
		return
	}

	res, err := s.runner.Run(r.Context(), model.BatchRequest{Model: kind, Sequences: seqs, Options: opts})
	if err != nil {
		fail(err, nil)
		return
	}
	if res.AllFailed() {
		fail(fmt.Errorf("%s processing failed for all sequences.", kind.DisplayName()), res.Failures)
		return
	}

	csvText, err := output.ToCSV(res.Rows)
	if err != nil {
		fail(fmt.Errorf("could not build the CSV report: %w", err), nil)
		return
	}

	notice := &Notice{Level: "success", Text: fmt.Sprintf("Processed %d sequence(s) via %s API.", len(res.Rows), kind.DisplayName())}
	if len(res.Failures) > 0 {
		notice.Level = "warning"
		notice.Failures = res.Failures
	}
	s.sessions.Update(sess, func(sess *Session) {
		sess.Report = &Report{Result: res, CSV: csvText, Filename: output.ReportFilename(kind)}
		sess.Notice = notice
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	var report *Report
	s.sessions.Update(sess, func(sess *Session) { report = sess.Report })
	if report == nil {
		http.Error(w, "no report available; run a batch first", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	io.WriteString(w, report.CSV)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok", "sessions": s.sessions.Len()}
	status := http.StatusOK
	if s.configErr != nil {
		body["status"] = "misconfigured"
		body["error"] = s.configErr.Error()
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// formUpload returns the uploaded file, or nil when none was sent.
func formUpload(r *http.Request) (*normalize.Upload, error) {
	f, hdr, err := r.FormFile("file")
	if stderrors.Is(err, http.ErrMissingFile) || stderrors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.Validation, "could not read the uploaded file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(errors.Validation, "could not read the uploaded file", err)
	}
	return &normalize.Upload{Name: hdr.Filename, Data: data}, nil
}

// parseOptions reads model options from the form. Unchecked boxes are false.
func parseOptions(r *http.Request) (model.Options, error) {
	o := model.DefaultOptions()
	checked := func(name string) bool { return r.FormValue(name) != "" }

	if v := strings.TrimSpace(r.FormValue("nativeness_type")); v != "" {
		o.NativenessType = v
	}
	o.DoAlign = checked("do_align")
	o.IsVHH = checked("is_vhh")

	o.UseGPU = checked("use_gpu")
	o.GPUDevice = strings.TrimSpace(r.FormValue("gpu_device"))
	o.Minimize = checked("minimize")
	o.IncludeNbFrame = checked("include_nbframe")

	for name, dst := range map[string]*float64{
		"kinked_threshold":   &o.KinkedThreshold,
		"extended_threshold": &o.ExtendedThreshold,
	} {
		v := strings.TrimSpace(r.FormValue(name))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, errors.Newf(errors.Validation, "%s must be a number, got %q", name, v)
		}
		*dst = f
	}

	if v := strings.TrimSpace(r.FormValue("batch_size")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return o, errors.Newf(errors.Validation, "batch_size must be a positive integer, got %q", v)
		}
		o.BatchSize = n
	}
	o.CalculateConfidence = checked("calculate_confidence")
	o.Verbose = checked("verbose")
	return o, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		output.Logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
