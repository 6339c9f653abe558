// Package imscc generates IMS Common Cartridge and plain QTI 1.2 packages.
// The two profiles share the questestinterop item grammar and differ in the
// manifest flavor and the image href base.
package imscc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/OPS-PIvers/Doc2LMS/internal/export"
	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

type Backend struct {
	ccProfile bool
}

func init() {
	export.Register("imscc", &Backend{ccProfile: true})
	export.Register("qti12", &Backend{})
}

func (b *Backend) Generate(items []quiz.QuestionAnswer, images *quiz.ImageRegistry, title string) (*export.Result, error) {
	res := &export.Result{}

	var body strings.Builder
	for _, qa := range items {
		itemXML, err := b.buildItem(qa, images)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("question %d skipped: %v", qa.Draft.Number, err))
			continue
		}
		body.WriteString(itemXML)
	}

	assessment := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<questestinterop>
  <assessment ident="assessment1" title=%s>
    <section ident="root_section">
%s    </section>
  </assessment>
</questestinterop>
`, attr(title), body.String())
	res.Items = append(res.Items, export.Document{Name: "assessment.xml", Data: []byte(assessment)})

	for _, im := range images.All() {
		res.Resources = append(res.Resources, export.Resource{Name: im.Filename(), Data: im.Bytes})
	}

	mf, err := b.buildManifest(title, images)
	if err != nil {
		return nil, fmt.Errorf("imscc manifest: %w", err)
	}
	res.Manifest = export.Document{Name: "imsmanifest.xml", Data: mf}
	return res, nil
}

// --- manifest ---

type imsManifest struct {
	XMLName    xml.Name      `xml:"manifest"`
	Identifier string        `xml:"identifier,attr"`
	Xmlns      string        `xml:"xmlns,attr,omitempty"`
	Title      string        `xml:"metadata>lom>general>title>string,omitempty"`
	Resources  []imsResource `xml:"resources>resource"`
}

type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	Href       string    `xml:"href,attr"`
	Files      []imsFile `xml:"file"`
}

type imsFile struct {
	Href string `xml:"href,attr"`
}

func (b *Backend) buildManifest(title string, images *quiz.ImageRegistry) ([]byte, error) {
	resType := "imsqti_xmlv1p2"
	ns := "http://www.imsglobal.org/xsd/imscp_v1p1"
	if b.ccProfile {
		resType = "imsqti_xmlv1p2/imscc_xmlv1p1/assessment"
		ns = "http://www.imsglobal.org/xsd/imsccv1p1/imscp_v1p1"
	}
	mf := imsManifest{
		Identifier: "doc2lms_manifest",
		Xmlns:      ns,
		Title:      title,
		Resources: []imsResource{{
			Identifier: "assessment1",
			Type:       resType,
			Href:       "assessment.xml",
			Files:      []imsFile{{Href: "assessment.xml"}},
		}},
	}
	for i, im := range images.All() {
		href := "resources/" + im.Filename()
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: fmt.Sprintf("resource_img_%d", i+1),
			Type:       "webcontent",
			Href:       href,
			Files:      []imsFile{{Href: href}},
		})
	}
	out, err := xml.MarshalIndent(mf, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// --- items ---

func (b *Backend) buildItem(qa quiz.QuestionAnswer, images *quiz.ImageRegistry) (string, error) {
	ident := fmt.Sprintf("item%d", qa.Draft.Number)
	respID := fmt.Sprintf("response%d", qa.Draft.Number)
	stem := b.material(export.EnsureStem(qa), images)

	switch qa.Draft.Type {
	case quiz.TypeMCQSingle, quiz.TypeTrueFalse, quiz.TypeMCQMulti:
		return b.choiceItem(qa, ident, respID, stem), nil
	case quiz.TypeFIBText, quiz.TypeShortWord:
		return b.fibItem(qa, ident, respID, stem), nil
	case quiz.TypeEssay:
		return b.essayItem(ident, respID, stem), nil
	case quiz.TypeFIBNumeric:
		return b.numericItem(qa, ident, respID, stem), nil
	case quiz.TypeMatching:
		return b.matchingItem(qa, ident, respID, stem), nil
	case quiz.TypeOrdering:
		return b.orderingItem(qa, ident, respID, stem), nil
	}
	return "", fmt.Errorf("no item template for type %s", qa.Draft.Type)
}

func (b *Backend) choiceItem(qa quiz.QuestionAnswer, ident, respID, stem string) string {
	opts := export.EnsureOptions(qa.Draft.Options)
	correct := export.CorrectLetters(qa, opts)
	multi := qa.Draft.Type == quiz.TypeMCQMulti

	card := "Single"
	if multi {
		card = "Multiple"
	}
	var labels strings.Builder
	for _, o := range opts {
		fmt.Fprintf(&labels, `            <response_label ident=%s><material><mattext texttype="text/plain">%s</mattext></material></response_label>
`, attr(o.Letter), esc(quiz.StripPlaceholders(o.Text)))
	}

	var cond strings.Builder
	if multi {
		// conjunctive match with explicit negation of the wrong letters
		cond.WriteString("          <and>\n")
		correctSet := map[string]bool{}
		for _, c := range correct {
			correctSet[c] = true
			fmt.Fprintf(&cond, "            <varequal respident=%s>%s</varequal>\n", attr(respID), esc(c))
		}
		for _, o := range opts {
			if !correctSet[strings.ToUpper(o.Letter)] {
				fmt.Fprintf(&cond, "            <not><varequal respident=%s>%s</varequal></not>\n", attr(respID), esc(strings.ToUpper(o.Letter)))
			}
		}
		cond.WriteString("          </and>\n")
	} else {
		fmt.Fprintf(&cond, "          <varequal respident=%s>%s</varequal>\n", attr(respID), esc(correct[0]))
	}

	return fmt.Sprintf(`      <item ident=%s>
        <presentation>
          <material><mattext texttype="text/html">%s</mattext></material>
          <response_lid ident=%s rcardinality=%s>
            <render_choice>
%s            </render_choice>
          </response_lid>
        </presentation>
        %s
      </item>
`, attr(ident), stem, attr(respID), attr(card), labels.String(), resprocessing(cond.String()))
}

func (b *Backend) fibItem(qa quiz.QuestionAnswer, ident, respID, stem string) string {
	accepted := export.AcceptedTexts(qa)
	var cond strings.Builder
	if len(accepted) > 1 {
		cond.WriteString("          <or>\n")
		for _, a := range accepted {
			fmt.Fprintf(&cond, "            <varequal respident=%s case=\"No\">%s</varequal>\n", attr(respID), esc(a))
		}
		cond.WriteString("          </or>\n")
	} else if len(accepted) == 1 {
		fmt.Fprintf(&cond, "          <varequal respident=%s case=\"No\">%s</varequal>\n", attr(respID), esc(accepted[0]))
	} else {
		// ungraded: any non-empty response scores
		fmt.Fprintf(&cond, "          <other/>\n")
	}
	return fmt.Sprintf(`      <item ident=%s>
        <presentation>
          <material><mattext texttype="text/html">%s</mattext></material>
          <response_str ident=%s rcardinality="Single">
            <render_fib><response_label ident=%s/></render_fib>
          </response_str>
        </presentation>
        %s
      </item>
`, attr(ident), stem, attr(respID), attr(respID+"_a"), resprocessing(cond.String()))
}

func (b *Backend) essayItem(ident, respID, stem string) string {
	return fmt.Sprintf(`      <item ident=%s>
        <presentation>
          <material><mattext texttype="text/html">%s</mattext></material>
          <response_str ident=%s rcardinality="Single">
            <render_fib rows="10" columns="60"><response_label ident=%s/></render_fib>
          </response_str>
        </presentation>
      </item>
`, attr(ident), stem, attr(respID), attr(respID+"_a"))
}

func (b *Backend) numericItem(qa quiz.QuestionAnswer, ident, respID, stem string) string {
	var cond strings.Builder
	if qa.Answer != nil {
		fmt.Fprintf(&cond, "          <varequal respident=%s>%s</varequal>\n", attr(respID), esc(formatNumber(qa.Answer.Number)))
	} else {
		cond.WriteString("          <other/>\n")
	}
	return fmt.Sprintf(`      <item ident=%s>
        <presentation>
          <material><mattext texttype="text/html">%s</mattext></material>
          <response_num ident=%s rcardinality="Single">
            <render_fib fibtype="Decimal"><response_label ident=%s/></render_fib>
          </response_num>
        </presentation>
        %s
      </item>
`, attr(ident), stem, attr(respID), attr(respID+"_a"), resprocessing(cond.String()))
}

// matchingItem renders one response_lid per premise with every response as a
// choice; the condition is the conjunction of the answered pairs only, so
// grading tests the recorded subset of pairs.
func (b *Backend) matchingItem(qa quiz.QuestionAnswer, ident, respID, stem string) string {
	var pairs []quiz.MatchPair
	if qa.Answer != nil {
		pairs = qa.Answer.Pairs
	}

	responses := map[string]bool{}
	var responseList []string
	for _, p := range pairs {
		if !responses[p.Response] {
			responses[p.Response] = true
			responseList = append(responseList, p.Response)
		}
	}
	if len(responseList) == 0 {
		responseList = []string{"A", "B"}
	}

	var lids, cond strings.Builder
	cond.WriteString("          <and>\n")
	for i, p := range pairs {
		lid := fmt.Sprintf("%s_%d", respID, i+1)
		var labels strings.Builder
		for _, r := range responseList {
			fmt.Fprintf(&labels, `                <response_label ident=%s><material><mattext texttype="text/plain">%s</mattext></material></response_label>
`, attr(r), esc(r))
		}
		fmt.Fprintf(&lids, `          <response_lid ident=%s rcardinality="Single">
            <material><mattext texttype="text/plain">%s</mattext></material>
            <render_choice>
%s            </render_choice>
          </response_lid>
`, attr(lid), esc(p.Premise), labels.String())
		fmt.Fprintf(&cond, "            <varequal respident=%s>%s</varequal>\n", attr(lid), esc(p.Response))
	}
	cond.WriteString("          </and>\n")

	if len(pairs) == 0 {
		// ungraded matching shell so the item still imports
		fmt.Fprintf(&lids, `          <response_lid ident=%s rcardinality="Single">
            <render_choice>
                <response_label ident="A"><material><mattext texttype="text/plain">A</mattext></material></response_label>
                <response_label ident="B"><material><mattext texttype="text/plain">B</mattext></material></response_label>
            </render_choice>
          </response_lid>
`, attr(respID+"_1"))
		cond.Reset()
		cond.WriteString("          <other/>\n")
	}

	return fmt.Sprintf(`      <item ident=%s>
        <presentation>
          <material><mattext texttype="text/html">%s</mattext></material>
%s        </presentation>
        %s
      </item>
`, attr(ident), stem, lids.String(), resprocessing(cond.String()))
}

// orderingItem uses an Ordered response_lid; grading is exact sequence
// equality, one positional varequal per token.
func (b *Backend) orderingItem(qa quiz.QuestionAnswer, ident, respID, stem string) string {
	opts := export.EnsureOptions(qa.Draft.Options)
	seq := export.OrderingSequence(qa, opts)

	var labels strings.Builder
	for _, o := range opts {
		fmt.Fprintf(&labels, `            <response_label ident=%s><material><mattext texttype="text/plain">%s</mattext></material></response_label>
`, attr(o.Letter), esc(quiz.StripPlaceholders(o.Text)))
	}
	var cond strings.Builder
	cond.WriteString("          <and>\n")
	for i, tok := range seq {
		fmt.Fprintf(&cond, "            <varequal respident=%s index=\"%d\">%s</varequal>\n", attr(respID), i+1, esc(tok))
	}
	cond.WriteString("          </and>\n")

	return fmt.Sprintf(`      <item ident=%s>
        <presentation>
          <material><mattext texttype="text/html">%s</mattext></material>
          <response_lid ident=%s rcardinality="Ordered">
            <render_choice>
%s            </render_choice>
          </response_lid>
        </presentation>
        %s
      </item>
`, attr(ident), stem, attr(respID), labels.String(), resprocessing(cond.String()))
}

func resprocessing(cond string) string {
	return fmt.Sprintf(`<resprocessing>
          <outcomes><decvar maxvalue="100" minvalue="0" varname="SCORE" vartype="Decimal"/></outcomes>
          <respcondition continue="No">
            <conditionvar>
%s            </conditionvar>
            <setvar action="Set" varname="SCORE">100</setvar>
          </respcondition>
        </resprocessing>`, cond)
}

// material renders the stem as a CDATA html fragment with image placeholders
// rewritten to the profile's resource href base.
func (b *Backend) material(text string, images *quiz.ImageRegistry) string {
	base := "resources/"
	if b.ccProfile {
		base = "$IMS-CC-FILEBASE$../resources/"
	}
	html := quiz.RewritePlaceholders(esc(text), func(id string) (string, bool) {
		im, ok := images.Get(id)
		if !ok {
			return "", false
		}
		return fmt.Sprintf(`<img src="%s%s" width="%d" height="%d"/>`, base, im.Filename(), im.Width, im.Height), true
	})
	return "<![CDATA[" + html + "]]>"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func esc(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func attr(s string) string {
	return `"` + strings.ReplaceAll(esc(s), `"`, "&quot;") + `"`
}
