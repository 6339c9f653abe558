package parse

import (
	"regexp"

	"github.com/OPS-PIvers/Doc2LMS/internal/blocks"
)

// Cosmetic pre-pass for sloppy documents. It rewrites recognizable markers
// into the canonical spellings the structural parser is most reliable on:
// question and answer-key lines to "N. ...", option lines to "(X) ...".
// Purely textual; parsing behaves identically with or without it, it only
// widens what gets recognized.

var (
	fixQuestionRe = regexp.MustCompile(`^\s*(\d+)\s*[.)\:\-]\s*`)
	fixOptionRe   = regexp.MustCompile(`^\s*\(?([A-Za-z])[.)\:\-]\s+`)
)

// ApplyQuickFixes returns a copy of the stream with marker spellings
// normalized. Image attachments ride along untouched; offsets within rewritten
// prefixes are clamped by the structural parser anyway.
func ApplyQuickFixes(stream []blocks.Block) []blocks.Block {
	out := make([]blocks.Block, len(stream))
	for i, b := range stream {
		nb := b
		if m := fixQuestionRe.FindStringSubmatch(b.Text); m != nil {
			nb.Text = m[1] + ". " + b.Text[len(m[0]):]
		} else if m := fixOptionRe.FindStringSubmatch(b.Text); m != nil {
			nb.Text = "(" + m[1] + ") " + b.Text[len(m[0]):]
		}
		out[i] = nb
	}
	return out
}
