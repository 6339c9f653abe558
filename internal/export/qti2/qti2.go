// Package qti2 generates QTI 2.1 packages: one assessmentTest plus one
// assessmentItem document per question.
package qti2

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/OPS-PIvers/Doc2LMS/internal/export"
	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

const ns = "http://www.imsglobal.org/xsd/imsqti_v2p1"

const (
	tmplMatchCorrect = "http://www.imsglobal.org/question/qti_v2p1/rptemplates/match_correct"
	tmplMapResponse  = "http://www.imsglobal.org/question/qti_v2p1/rptemplates/map_response"
)

type Backend struct{}

func init() {
	export.Register("qti21", &Backend{})
}

func (b *Backend) Generate(items []quiz.QuestionAnswer, images *quiz.ImageRegistry, title string) (*export.Result, error) {
	res := &export.Result{}

	var refs strings.Builder
	for _, qa := range items {
		doc, err := buildItemDoc(qa, images)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("question %d skipped: %v", qa.Draft.Number, err))
			continue
		}
		name := fmt.Sprintf("item%d.xml", qa.Draft.Number)
		res.Items = append(res.Items, export.Document{Name: name, Data: []byte(doc)})
		fmt.Fprintf(&refs, `      <assessmentItemRef identifier=%s href=%s/>
`, attr(fmt.Sprintf("item%d", qa.Draft.Number)), attr(name))
	}

	test := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<assessmentTest identifier="test1" title=%s xmlns=%s>
  <testPart identifier="part1" navigationMode="nonlinear" submissionMode="individual">
    <assessmentSection identifier="section1" title=%s visible="true">
%s    </assessmentSection>
  </testPart>
</assessmentTest>
`, attr(title), attr(ns), attr(title), refs.String())
	res.Items = append([]export.Document{{Name: "assessment_test.xml", Data: []byte(test)}}, res.Items...)

	for _, im := range images.All() {
		res.Resources = append(res.Resources, export.Resource{Name: im.Filename(), Data: im.Bytes})
	}

	mf, err := buildManifest(res)
	if err != nil {
		return nil, fmt.Errorf("qti21 manifest: %w", err)
	}
	res.Manifest = export.Document{Name: "imsmanifest.xml", Data: mf}
	return res, nil
}

type imsManifest struct {
	XMLName    xml.Name      `xml:"manifest"`
	Identifier string        `xml:"identifier,attr"`
	Xmlns      string        `xml:"xmlns,attr"`
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

func buildManifest(res *export.Result) ([]byte, error) {
	mf := imsManifest{
		Identifier: "doc2lms_manifest",
		Xmlns:      "http://www.imsglobal.org/xsd/imscp_v1p1",
	}
	for i, d := range res.Items {
		typ := "imsqti_item_xmlv2p1"
		if i == 0 {
			typ = "imsqti_test_xmlv2p1"
		}
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: strings.TrimSuffix(d.Name, ".xml"),
			Type:       typ,
			Href:       d.Name,
			Files:      []imsFile{{Href: d.Name}},
		})
	}
	for i, r := range res.Resources {
		href := "resources/" + r.Name
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

// buildItemDoc emits one assessmentItem. Identifier is item<N>, the response
// identifier R<N>.
func buildItemDoc(qa quiz.QuestionAnswer, images *quiz.ImageRegistry) (string, error) {
	ident := fmt.Sprintf("item%d", qa.Draft.Number)
	respID := fmt.Sprintf("R%d", qa.Draft.Number)
	prompt := promptHTML(export.EnsureStem(qa), images)

	var decl, interaction string
	template := tmplMatchCorrect
	switch qa.Draft.Type {
	case quiz.TypeMCQSingle, quiz.TypeTrueFalse, quiz.TypeMCQMulti:
		opts := export.EnsureOptions(qa.Draft.Options)
		correct := export.CorrectLetters(qa, opts)
		card, maxChoices := "single", 1
		if qa.Draft.Type == quiz.TypeMCQMulti {
			card, maxChoices = "multiple", len(opts)
		}
		decl = responseDecl(respID, card, "identifier", correct)
		var choices strings.Builder
		for _, o := range opts {
			fmt.Fprintf(&choices, `      <simpleChoice identifier=%s>%s</simpleChoice>
`, attr(strings.ToUpper(o.Letter)), esc(quiz.StripPlaceholders(o.Text)))
		}
		interaction = fmt.Sprintf(`    <choiceInteraction responseIdentifier=%s shuffle="false" maxChoices="%d">
%s    </choiceInteraction>`, attr(respID), maxChoices, choices.String())

	case quiz.TypeFIBText, quiz.TypeShortWord:
		accepted := export.AcceptedTexts(qa)
		decl = stringDecl(respID, accepted)
		if len(accepted) > 0 {
			// graded by the mapping, so every accepted spelling scores
			template = tmplMapResponse
		}
		interaction = fmt.Sprintf(`    <textEntryInteraction responseIdentifier=%s expectedLength="40"/>`, attr(respID))

	case quiz.TypeEssay:
		decl = fmt.Sprintf(`  <responseDeclaration identifier=%s cardinality="single" baseType="string"/>`, attr(respID))
		interaction = fmt.Sprintf(`    <extendedTextInteraction responseIdentifier=%s expectedLines="10"/>`, attr(respID))

	case quiz.TypeFIBNumeric:
		var values []string
		if qa.Answer != nil {
			values = []string{strconv.FormatFloat(qa.Answer.Number, 'f', -1, 64)}
		}
		decl = responseDecl(respID, "single", "float", values)
		interaction = fmt.Sprintf(`    <textEntryInteraction responseIdentifier=%s expectedLength="12"/>`, attr(respID))

	case quiz.TypeMatching:
		decl, interaction = matchingParts(qa, respID)

	case quiz.TypeOrdering:
		opts := export.EnsureOptions(qa.Draft.Options)
		decl = responseDecl(respID, "ordered", "identifier", export.OrderingSequence(qa, opts))
		var choices strings.Builder
		for _, o := range opts {
			fmt.Fprintf(&choices, `      <simpleChoice identifier=%s>%s</simpleChoice>
`, attr(strings.ToUpper(o.Letter)), esc(quiz.StripPlaceholders(o.Text)))
		}
		interaction = fmt.Sprintf(`    <orderInteraction responseIdentifier=%s shuffle="true">
%s    </orderInteraction>`, attr(respID), choices.String())

	default:
		return "", fmt.Errorf("no item template for type %s", qa.Draft.Type)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem identifier=%s title=%s adaptive="false" timeDependent="false" xmlns=%s>
%s
  <outcomeDeclaration identifier="SCORE" cardinality="single" baseType="float">
    <defaultValue><value>0</value></defaultValue>
  </outcomeDeclaration>
  <itemBody>
    %s
%s
  </itemBody>
  <responseProcessing template=%s/>
</assessmentItem>
`, attr(ident), attr(ident), attr(ns), decl, prompt, interaction, attr(template)), nil
}

func responseDecl(respID, cardinality, baseType string, values []string) string {
	if len(values) == 0 {
		return fmt.Sprintf(`  <responseDeclaration identifier=%s cardinality=%s baseType=%s/>`,
			attr(respID), attr(cardinality), attr(baseType))
	}
	var vals strings.Builder
	for _, v := range values {
		fmt.Fprintf(&vals, "      <value>%s</value>\n", esc(v))
	}
	return fmt.Sprintf(`  <responseDeclaration identifier=%s cardinality=%s baseType=%s>
    <correctResponse>
%s    </correctResponse>
  </responseDeclaration>`, attr(respID), attr(cardinality), attr(baseType), vals.String())
}

// stringDecl declares a free-text response graded through its mapping table:
// one case-insensitive mapEntry per accepted literal. correctResponse carries
// a single canonical value under the single cardinality; the mapping, not the
// correctResponse, is what the map_response template scores against.
func stringDecl(respID string, accepted []string) string {
	if len(accepted) == 0 {
		return fmt.Sprintf(`  <responseDeclaration identifier=%s cardinality="single" baseType="string"/>`, attr(respID))
	}
	var entries strings.Builder
	for _, a := range accepted {
		fmt.Fprintf(&entries, `      <mapEntry mapKey=%s mappedValue="1" caseSensitive="false"/>
`, attr(a))
	}
	return fmt.Sprintf(`  <responseDeclaration identifier=%s cardinality="single" baseType="string">
    <correctResponse>
      <value>%s</value>
    </correctResponse>
    <mapping defaultValue="0" upperBound="1">
%s    </mapping>
  </responseDeclaration>`, attr(respID), esc(accepted[0]), entries.String())
}

// matchingParts declares directed pairs and a matchInteraction over the
// answered pairs. Only the recorded pairs participate in grading.
func matchingParts(qa quiz.QuestionAnswer, respID string) (decl, interaction string) {
	var pairs []quiz.MatchPair
	if qa.Answer != nil {
		pairs = qa.Answer.Pairs
	}
	if len(pairs) == 0 {
		pairs = []quiz.MatchPair{{Premise: "1", Response: "A"}, {Premise: "2", Response: "B"}}
	}
	var values strings.Builder
	premises := map[string]string{}
	responses := map[string]string{}
	var premiseOrder, responseOrder []string
	for i, p := range pairs {
		pid, ok := premises[p.Premise]
		if !ok {
			pid = fmt.Sprintf("P%d", i+1)
			premises[p.Premise] = pid
			premiseOrder = append(premiseOrder, p.Premise)
		}
		rid, ok := responses[p.Response]
		if !ok {
			rid = fmt.Sprintf("Q%d", i+1)
			responses[p.Response] = rid
			responseOrder = append(responseOrder, p.Response)
		}
		fmt.Fprintf(&values, "      <value>%s %s</value>\n", esc(pid), esc(rid))
	}
	decl = fmt.Sprintf(`  <responseDeclaration identifier=%s cardinality="multiple" baseType="directedPair">
    <correctResponse>
%s    </correctResponse>
  </responseDeclaration>`, attr(respID), values.String())

	var left, right strings.Builder
	for _, p := range premiseOrder {
		fmt.Fprintf(&left, `        <simpleAssociableChoice identifier=%s matchMax="1">%s</simpleAssociableChoice>
`, attr(premises[p]), esc(p))
	}
	for _, r := range responseOrder {
		fmt.Fprintf(&right, `        <simpleAssociableChoice identifier=%s matchMax="0">%s</simpleAssociableChoice>
`, attr(responses[r]), esc(r))
	}
	interaction = fmt.Sprintf(`    <matchInteraction responseIdentifier=%s shuffle="false" maxAssociations="%d">
      <simpleMatchSet>
%s      </simpleMatchSet>
      <simpleMatchSet>
%s      </simpleMatchSet>
    </matchInteraction>`, attr(respID), len(pairs), left.String(), right.String())
	return decl, interaction
}

// promptHTML renders the stem with image placeholders rewritten to package
// resource paths.
func promptHTML(text string, images *quiz.ImageRegistry) string {
	html := quiz.RewritePlaceholders(esc(text), func(id string) (string, bool) {
		im, ok := images.Get(id)
		if !ok {
			return "", false
		}
		return fmt.Sprintf(`<img src="resources/%s" width="%d" height="%d"/>`, im.Filename(), im.Width, im.Height), true
	})
	return "<p>" + html + "</p>"
}

func esc(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func attr(s string) string {
	return `"` + strings.ReplaceAll(esc(s), `"`, "&quot;") + `"`
}
