/*
PURPOSE:
  Defines the core data structures used throughout seqdash.
  These models represent input sequences, batch requests and batch outcomes.

REQUIREMENTS:
  User-specified:
  - Sequences carry an identifier and a cleaned residue string.
  - A batch targets exactly one model with model-specific options.
  - Every input sequence yields exactly one row or exactly one failure.

  Implementation-discovered:
  - Result columns are model-specific and must keep first-seen order (see row.go).
  - Options must carry sensible defaults so the CLI and dashboard agree.

ARCHITECTURE INTEGRATION:
  - Used by: internal/normalize, internal/adapters, internal/batch, internal/output, internal/dashboard
  - Shared across boundaries.

ERROR HANDLING:
  - ParseKind returns an error for unknown model names.

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Values are immutable once a batch starts.

USAGE:
  req := model.BatchRequest{Model: model.Stability, Sequences: seqs, Options: model.DefaultOptions()}

SELF-HEALING INSTRUCTIONS:
  - If a new model is added, add a Kind constant, include it in Kinds(), and register an adapter.

RELATED FILES:
  - internal/model/row.go
  - internal/adapters/adapter.go

MAINTENANCE:
  - Update when a model grows new options.
*/

package model

import (
	"fmt"
	"strings"
)

// Kind identifies one of the remote models.
type Kind string

const (
	Nativeness Kind = "abnativ"
	Structure  Kind = "nbforge"
	CDR3       Kind = "nbframe"
	Stability  Kind = "nanomelt"
	Kink       Kind = "nanokink"
)

// Kinds returns all models in display order.
func Kinds() []Kind {
	return []Kind{Nativeness, Structure, CDR3, Stability, Kink}
}

// DisplayName returns the name the services are published under.
func (k Kind) DisplayName() string {
	switch k {
	case Nativeness:
		return "AbNatiV"
	case Structure:
		return "NbForge"
	case CDR3:
		return "NbFrame"
	case Stability:
		return "NanoMelt"
	case Kink:
		return "NanoKink"
	}
	return string(k)
}

// ParseKind accepts either the wire name ("nanomelt") or the display name ("NanoMelt").
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if want == string(k) || want == strings.ToLower(k.DisplayName()) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown model %q", s)
}

// Sequence is one cleaned input record.
type Sequence struct {
	ID       string `json:"sequence_id"`
	Residues string `json:"sequence"`
}

// Options holds per-model knobs. Each adapter reads only its own fields.
type Options struct {
	// AbNatiV
	NativenessType string `json:"nativeness_type"`
	DoAlign        bool   `json:"do_align"`
	IsVHH          bool   `json:"is_vhh"`

	// NbForge
	UseGPU         bool   `json:"use_gpu"`
	GPUDevice      string `json:"gpu_device"`
	Minimize       bool   `json:"minimize"`
	IncludeNbFrame bool   `json:"include_nbframe"`

	// NbFrame
	KinkedThreshold   float64 `json:"kinked_threshold"`
	ExtendedThreshold float64 `json:"extended_threshold"`

	// NanoKink
	BatchSize           int  `json:"batch_size"`
	CalculateConfidence bool `json:"calculate_confidence"`
	Verbose             bool `json:"verbose"`
}

// DefaultOptions returns the options the dashboard pre-selects.
func DefaultOptions() Options {
	return Options{
		NativenessType:    "VH2",
		DoAlign:           true,
		Minimize:          true,
		KinkedThreshold:   0.70,
		ExtendedThreshold: 0.40,
		BatchSize:         512,
	}
}

// BatchRequest is built per "Run" action and never persisted.
type BatchRequest struct {
	Model     Kind
	Sequences []Sequence
	Options   Options
}

// BatchResult is the outcome of one run.
// len(Rows)+len(Failures) always equals the number of input sequences.
type BatchResult struct {
	Model    Kind     `json:"model"`
	Rows     []*Row   `json:"rows"`
	Failures []string `json:"failures"`
}

// AllFailed reports whether the run produced no rows at all.
func (r BatchResult) AllFailed() bool {
	return len(r.Rows) == 0
}
