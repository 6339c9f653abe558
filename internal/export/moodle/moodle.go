// Package moodle generates Moodle XML quizzes. Only multiple-choice shapes
// are supported; other question types are skipped with a warning.
package moodle

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/OPS-PIvers/Doc2LMS/internal/export"
	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

type Backend struct{}

func init() {
	export.Register("moodle", &Backend{})
}

func (b *Backend) Generate(items []quiz.QuestionAnswer, images *quiz.ImageRegistry, title string) (*export.Result, error) {
	res := &export.Result{}

	var body strings.Builder
	body.WriteString(xml.Header)
	body.WriteString("<quiz>\n")
	emitted := 0
	for _, qa := range items {
		switch qa.Draft.Type {
		case quiz.TypeMCQSingle, quiz.TypeMCQMulti, quiz.TypeTrueFalse:
		default:
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("question %d (%s) skipped: moodle backend emits multichoice only", qa.Draft.Number, qa.Draft.Type))
			continue
		}
		body.WriteString(buildQuestion(qa, images))
		emitted++
	}
	body.WriteString("</quiz>\n")
	if emitted == 0 {
		res.Warnings = append(res.Warnings, "no multiple-choice questions; emitting empty quiz")
	}

	// images ride inline as data URIs, so no resource files are emitted
	res.Manifest = export.Document{Name: "quiz.xml", Data: []byte(body.String())}
	return res, nil
}

func buildQuestion(qa quiz.QuestionAnswer, images *quiz.ImageRegistry) string {
	opts := export.EnsureOptions(qa.Draft.Options)
	correct := map[string]bool{}
	for _, l := range export.CorrectLetters(qa, opts) {
		correct[l] = true
	}
	single := qa.Draft.Type != quiz.TypeMCQMulti

	// spread full credit across the correct letters of a multi-select
	fraction := "100"
	if !single && len(correct) > 1 {
		fraction = fmt.Sprintf("%.5f", 100.0/float64(len(correct)))
	}

	var answers strings.Builder
	for _, o := range opts {
		f := "0"
		if correct[strings.ToUpper(o.Letter)] {
			f = fraction
		}
		fmt.Fprintf(&answers, `    <answer fraction="%s">
      <text>%s</text>
    </answer>
`, f, esc(quiz.StripPlaceholders(o.Text)))
	}

	return fmt.Sprintf(`  <question type="multichoice">
    <name><text>%s</text></name>
    <questiontext format="html">
      <text>%s</text>
    </questiontext>
    <shuffleanswers>0</shuffleanswers>
    <single>%t</single>
    <answernumbering>ABCD</answernumbering>
%s  </question>
`, esc(fmt.Sprintf("Question %d", qa.Draft.Number)), promptHTML(export.EnsureStem(qa), images), single, answers.String())
}

// promptHTML inlines registered images as base64 data URIs; Moodle XML has
// no package-level resource directory to reference.
func promptHTML(text string, images *quiz.ImageRegistry) string {
	html := quiz.RewritePlaceholders(esc(text), func(id string) (string, bool) {
		im, ok := images.Get(id)
		if !ok {
			return "", false
		}
		return fmt.Sprintf(`&lt;img src="data:%s;base64,%s"/&gt;`, im.MIMEType, base64Bytes(im.Bytes)), true
	})
	return html
}

func base64Bytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func esc(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
