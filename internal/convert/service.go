// Package convert orchestrates one conversion run: block stream in, stored
// package artifact out.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OPS-PIvers/Doc2LMS/internal/artifact"
	"github.com/OPS-PIvers/Doc2LMS/internal/blocks"
	"github.com/OPS-PIvers/Doc2LMS/internal/export"
	"github.com/OPS-PIvers/Doc2LMS/internal/pack"
	"github.com/OPS-PIvers/Doc2LMS/internal/parse"
)

// ErrUnknownFormat is returned for a format key with no registered backend.
var ErrUnknownFormat = errors.New("doc2lms: unknown export format")

// ArtifactStore is the persistence surface the service needs; the SQL-backed
// store satisfies it.
type ArtifactStore interface {
	Save(ctx context.Context, displayName, format string, questionCount int, warnings []string, data []byte) (artifact.Ref, error)
}

type Service struct {
	artifacts ArtifactStore
	log       *slog.Logger
}

func NewService(artifacts ArtifactStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{artifacts: artifacts, log: log}
}

// Request is one conversion run over an already-materialized block stream.
type Request struct {
	Blocks     []blocks.Block
	Format     string // backend key: imscc, qti12, qti21, moodle, blackboard
	Title      string
	QuickFixes bool // apply the cosmetic marker normalizer before parsing
}

// Outcome reports one run. On failure Message carries the short
// user-actionable text; the full diagnostic is logged only.
type Outcome struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Artifact  artifact.Ref `json:"artifact,omitempty"`
	Questions int          `json:"questions,omitempty"`
	Warnings  []string     `json:"warnings,omitempty"`
}

// Convert runs the pipeline. Per-line and per-item failures accumulate as
// warnings; only a document with no questions, an unknown format, or an
// assembly/storage failure aborts.
func (s *Service) Convert(ctx context.Context, req Request) (Outcome, error) {
	backend, ok := export.Lookup(req.Format)
	if !ok {
		return s.fail("Unknown export format %q. Use one of the /formats keys.",
			fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format), req.Format)
	}
	title := req.Title
	if title == "" {
		title = "Converted Quiz"
	}

	stream := req.Blocks
	if req.QuickFixes {
		stream = parse.ApplyQuickFixes(stream)
	}

	st, err := parse.Structure(stream, s.log)
	if err != nil {
		return s.fail("No questions were found in the document. Number each question like \"1. ...\".", err)
	}
	var warnings []string
	warnings = append(warnings, st.Warnings...)
	if st.Boundary < 0 {
		warnings = append(warnings, "no answer-key section found; questions will be exported ungraded")
	}

	key := parse.ParseKey(st.Tail, st.Types, s.log)
	warnings = append(warnings, key.Warnings...)

	ir, combineWarnings := parse.Combine(st.Drafts, key.Records, s.log)
	warnings = append(warnings, combineWarnings...)

	gen, err := backend.Generate(ir, st.Images, title)
	if err != nil {
		return s.fail("The export backend could not generate the package.", err)
	}
	warnings = append(warnings, gen.Warnings...)

	archive, err := pack.Assemble(gen)
	if err != nil {
		return s.fail("The package archive could not be assembled.", err)
	}

	ref, err := s.artifacts.Save(ctx, title, req.Format, len(ir), warnings, archive)
	if err != nil {
		return s.fail("The generated package could not be stored.", err)
	}

	s.log.Info("conversion complete",
		"format", req.Format, "questions", len(ir),
		"warnings", len(warnings), "artifact", ref.ID)
	return Outcome{
		Success:   true,
		Message:   fmt.Sprintf("Converted %d questions to %s.", len(ir), req.Format),
		Artifact:  ref,
		Questions: len(ir),
		Warnings:  warnings,
	}, nil
}

// fail logs the internal diagnostic and returns the short user message.
func (s *Service) fail(userMsg string, err error, args ...any) (Outcome, error) {
	s.log.Error("conversion failed", "error", err)
	return Outcome{Success: false, Message: fmt.Sprintf(userMsg, args...)}, err
}
