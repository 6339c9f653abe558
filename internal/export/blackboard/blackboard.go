// Package blackboard generates a Blackboard-flavored package: a pool of
// single-choice questestinterop items under a Blackboard manifest. Only
// single-choice shapes are supported; other types are skipped with a warning.
package blackboard

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/OPS-PIvers/Doc2LMS/internal/export"
	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

type Backend struct{}

func init() {
	export.Register("blackboard", &Backend{})
}

func (b *Backend) Generate(items []quiz.QuestionAnswer, images *quiz.ImageRegistry, title string) (*export.Result, error) {
	res := &export.Result{}

	var body strings.Builder
	for _, qa := range items {
		switch qa.Draft.Type {
		case quiz.TypeMCQSingle, quiz.TypeTrueFalse:
		default:
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("question %d (%s) skipped: blackboard backend emits single-choice only", qa.Draft.Number, qa.Draft.Type))
			continue
		}
		body.WriteString(buildItem(qa, images))
	}

	pool := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<questestinterop>
  <assessment ident="pool1" title=%s>
    <section ident="pool_section">
%s    </section>
  </assessment>
</questestinterop>
`, attr(title), body.String())
	res.Items = append(res.Items, export.Document{Name: "res00001.dat", Data: []byte(pool)})

	for _, im := range images.All() {
		res.Resources = append(res.Resources, export.Resource{Name: im.Filename(), Data: im.Bytes})
	}

	mf, err := buildManifest(title, images)
	if err != nil {
		return nil, fmt.Errorf("blackboard manifest: %w", err)
	}
	res.Manifest = export.Document{Name: "imsmanifest.xml", Data: mf}
	return res, nil
}

// buildManifest writes the manifest as a template: encoding/xml cannot emit
// the bb:-prefixed attributes Blackboard expects on resource elements.
func buildManifest(title string, images *quiz.ImageRegistry) ([]byte, error) {
	var resources strings.Builder
	fmt.Fprintf(&resources, `    <resource identifier="res00001" type="assessment/x-bb-qti-pool" bb:title=%s bb:file="res00001.dat"/>
`, attr(title))
	for i, im := range images.All() {
		fmt.Fprintf(&resources, `    <resource identifier="res_img_%d" type="resource/x-bb-file" bb:title=%s bb:file=%s/>
`, i+1, attr(im.Filename()), attr("resources/"+im.Filename()))
	}
	mf := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<manifest identifier="doc2lms_manifest" xmlns:bb="http://www.blackboard.com/content-packaging">
  <resources>
%s  </resources>
</manifest>
`, resources.String())
	return []byte(mf), nil
}

func buildItem(qa quiz.QuestionAnswer, images *quiz.ImageRegistry) string {
	opts := export.EnsureOptions(qa.Draft.Options)
	correct := export.CorrectLetters(qa, opts)[0]
	ident := fmt.Sprintf("item%d", qa.Draft.Number)
	respID := fmt.Sprintf("response%d", qa.Draft.Number)

	var labels strings.Builder
	for _, o := range opts {
		fmt.Fprintf(&labels, `            <response_label ident=%s><material><mattext texttype="text/plain">%s</mattext></material></response_label>
`, attr(strings.ToUpper(o.Letter)), esc(quiz.StripPlaceholders(o.Text)))
	}

	return fmt.Sprintf(`      <item ident=%s>
        <itemmetadata>
          <bbmd_questiontype>Multiple Choice</bbmd_questiontype>
        </itemmetadata>
        <presentation>
          <material><mattext texttype="text/html">%s</mattext></material>
          <response_lid ident=%s rcardinality="Single">
            <render_choice>
%s            </render_choice>
          </response_lid>
        </presentation>
        <resprocessing>
          <outcomes><decvar maxvalue="100" minvalue="0" varname="SCORE" vartype="Decimal"/></outcomes>
          <respcondition continue="No">
            <conditionvar>
              <varequal respident=%s>%s</varequal>
            </conditionvar>
            <setvar action="Set" varname="SCORE">100</setvar>
          </respcondition>
        </resprocessing>
      </item>
`, attr(ident), material(export.EnsureStem(qa), images), attr(respID), labels.String(), attr(respID), esc(correct))
}

func material(text string, images *quiz.ImageRegistry) string {
	html := quiz.RewritePlaceholders(esc(text), func(id string) (string, bool) {
		im, ok := images.Get(id)
		if !ok {
			return "", false
		}
		return fmt.Sprintf(`<img src="resources/%s" width="%d" height="%d"/>`, im.Filename(), im.Width, im.Height), true
	})
	return "<![CDATA[" + html + "]]>"
}

func esc(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func attr(s string) string {
	return `"` + strings.ReplaceAll(esc(s), `"`, "&quot;") + `"`
}
