// Package http has the gateway's conversion API handlers.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/OPS-PIvers/Doc2LMS/internal/artifact"
	"github.com/OPS-PIvers/Doc2LMS/internal/blocks"
	"github.com/OPS-PIvers/Doc2LMS/internal/convert"
	"github.com/OPS-PIvers/Doc2LMS/internal/export"
)

// POST /convert (multipart: file=doc.docx, format=imscc, title=..., fixes=1)
// A "text" form field may replace the file for pasted documents.
func ConvertHandler(svc *convert.Service, sources *blocks.Registry, defaultFormat string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			http.Error(w, "multipart form required", http.StatusBadRequest)
			return
		}
		format := strings.ToLower(r.FormValue("format"))
		if format == "" {
			format = defaultFormat
		}

		stream, title, ok := readBlocks(r, sources, w)
		if !ok {
			return
		}
		if t := strings.TrimSpace(r.FormValue("title")); t != "" {
			title = t
		}

		out, err := svc.Convert(r.Context(), convert.Request{
			Blocks:     stream,
			Format:     format,
			Title:      title,
			QuickFixes: r.FormValue("fixes") == "1",
		})
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(out)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func readBlocks(r *http.Request, sources *blocks.Registry, w http.ResponseWriter) ([]blocks.Block, string, bool) {
	if text := r.FormValue("text"); strings.TrimSpace(text) != "" {
		return blocks.FromLines(strings.Split(text, "\n")), "Pasted Quiz", true
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file or text required", http.StatusBadRequest)
		return nil, "", false
	}
	defer f.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(hdr.Filename)), ".")
	src, err := sources.Get(ext)
	if err != nil {
		http.Error(w, "unsupported document format: "+ext, http.StatusBadRequest)
		return nil, "", false
	}
	stream, err := src.Read(r.Context(), f)
	if err != nil {
		http.Error(w, "reading document: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	title := strings.TrimSuffix(hdr.Filename, filepath.Ext(hdr.Filename))
	return stream, title, true
}

// GET /artifacts/{id}/download
func DownloadHandler(store *artifact.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		meta, rc, err := store.Get(r.Context(), id)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="`+safeFilename(meta.DisplayName)+`.zip"`)
		_, _ = io.Copy(w, rc)
	}
}

// GET /artifacts
func ListArtifactsHandler(store *artifact.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metas, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(metas)
	}
}

// GET /formats
func FormatsHandler() http.HandlerFunc {
	keys := export.Keys()
	sort.Strings(keys)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string][]string{"formats": keys})
	}
}

func safeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == ' ':
			return r
		}
		return '-'
	}, s)
	if strings.TrimSpace(s) == "" {
		return "quiz"
	}
	return s
}
