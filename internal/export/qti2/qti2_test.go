package qti2

import (
	"strings"
	"testing"

	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

func generate(t *testing.T, items ...quiz.QuestionAnswer) map[string]string {
	t.Helper()
	res, err := (&Backend{}).Generate(items, quiz.NewImageRegistry(), "Unit Quiz")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	docs := map[string]string{res.Manifest.Name: string(res.Manifest.Data)}
	for _, d := range res.Items {
		docs[d.Name] = string(d.Data)
	}
	return docs
}

func TestChoiceItemDocumentPerQuestion(t *testing.T) {
	docs := generate(t,
		quiz.QuestionAnswer{
			Draft: quiz.QuestionDraft{
				Number: 1, Stem: "Pick one.", Type: quiz.TypeMCQSingle,
				Options: []quiz.Option{{Letter: "A", Text: "no"}, {Letter: "B", Text: "yes"}},
			},
			Answer: &quiz.AnswerRecord{Kind: quiz.TypeMCQSingle, Letter: "B"},
		},
		quiz.QuestionAnswer{
			Draft:  quiz.QuestionDraft{Number: 2, Stem: "Explain.", Type: quiz.TypeEssay},
			Answer: nil,
		},
	)

	item1, ok := docs["item1.xml"]
	if !ok {
		t.Fatalf("item1.xml missing, have %v", keys(docs))
	}
	for _, want := range []string{
		`<assessmentItem identifier="item1"`,
		`responseIdentifier="R1"`,
		"<correctResponse>",
		"<value>B</value>",
		`<simpleChoice identifier="A">no</simpleChoice>`,
		`template="` + tmplMatchCorrect + `"`,
	} {
		if !strings.Contains(item1, want) {
			t.Errorf("item1 missing %s:\n%s", want, item1)
		}
	}

	item2 := docs["item2.xml"]
	if !strings.Contains(item2, "extendedTextInteraction") {
		t.Errorf("essay item wrong interaction:\n%s", item2)
	}
	if strings.Contains(item2, "<correctResponse>") {
		t.Errorf("essay item should be ungraded:\n%s", item2)
	}

	test := docs["assessment_test.xml"]
	if !strings.Contains(test, `href="item1.xml"`) || !strings.Contains(test, `href="item2.xml"`) {
		t.Errorf("test document does not reference both items:\n%s", test)
	}

	mf := docs["imsmanifest.xml"]
	if !strings.Contains(mf, `type="imsqti_test_xmlv2p1"`) {
		t.Errorf("manifest missing test resource:\n%s", mf)
	}
	if !strings.Contains(mf, `type="imsqti_item_xmlv2p1"`) {
		t.Errorf("manifest missing item resources:\n%s", mf)
	}
}

func TestTextEntryGradedByMapping(t *testing.T) {
	docs := generate(t, quiz.QuestionAnswer{
		Draft:  quiz.QuestionDraft{Number: 3, Stem: "The sky is ____.", Type: quiz.TypeFIBText},
		Answer: &quiz.AnswerRecord{Kind: quiz.TypeFIBText, Texts: []string{"blue", "Blue"}},
	})
	doc := docs["item3.xml"]
	if !strings.Contains(doc, `template="`+tmplMapResponse+`"`) {
		t.Errorf("free text must be scored by map_response:\n%s", doc)
	}
	if strings.Contains(doc, tmplMatchCorrect) {
		t.Errorf("match_correct would ignore the mapping:\n%s", doc)
	}
	for _, want := range []string{
		`<mapEntry mapKey="blue" mappedValue="1" caseSensitive="false"/>`,
		`<mapEntry mapKey="Blue" mappedValue="1" caseSensitive="false"/>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("mapping entry missing %s:\n%s", want, doc)
		}
	}
	start := strings.Index(doc, "<correctResponse>")
	end := strings.Index(doc, "</correctResponse>")
	if start < 0 || end < 0 {
		t.Fatalf("no correctResponse:\n%s", doc)
	}
	if got := strings.Count(doc[start:end], "<value>"); got != 1 {
		t.Errorf("single cardinality allows one correctResponse value, got %d:\n%s", got, doc)
	}
	if !strings.Contains(doc, "textEntryInteraction") {
		t.Errorf("wrong interaction:\n%s", doc)
	}
}

func TestUngradedTextEntryKeepsMatchCorrect(t *testing.T) {
	docs := generate(t, quiz.QuestionAnswer{
		Draft: quiz.QuestionDraft{Number: 5, Stem: "Name any ocean: ____.", Type: quiz.TypeFIBText},
	})
	doc := docs["item5.xml"]
	if !strings.Contains(doc, `template="`+tmplMatchCorrect+`"`) {
		t.Errorf("ungraded item should keep the default template:\n%s", doc)
	}
	if strings.Contains(doc, "<mapping") {
		t.Errorf("ungraded item should have no mapping:\n%s", doc)
	}
}

func TestOrderingCorrectResponseKeepsSequence(t *testing.T) {
	docs := generate(t, quiz.QuestionAnswer{
		Draft: quiz.QuestionDraft{
			Number: 1, Stem: "Order these.", Type: quiz.TypeOrdering,
			Options: []quiz.Option{{Letter: "A", Text: "x"}, {Letter: "B", Text: "y"}, {Letter: "C", Text: "z"}},
		},
		Answer: &quiz.AnswerRecord{Kind: quiz.TypeOrdering, Sequence: []string{"c", "a", "b"}},
	})
	doc := docs["item1.xml"]
	if !strings.Contains(doc, `cardinality="ordered"`) {
		t.Errorf("not ordered:\n%s", doc)
	}
	// key tokens are canonicalized to the uppercase choice identifiers
	c := strings.Index(doc, "<value>C</value>")
	a := strings.Index(doc, "<value>A</value>")
	b := strings.Index(doc, "<value>B</value>")
	if c < 0 || a < 0 || b < 0 || !(c < a && a < b) {
		t.Errorf("correctResponse order wrong:\n%s", doc)
	}
	if !strings.Contains(doc, "orderInteraction") {
		t.Errorf("wrong interaction:\n%s", doc)
	}
}

func TestMatchingDirectedPairs(t *testing.T) {
	docs := generate(t, quiz.QuestionAnswer{
		Draft: quiz.QuestionDraft{Number: 4, Stem: "Match them.", Type: quiz.TypeMatching},
		Answer: &quiz.AnswerRecord{Kind: quiz.TypeMatching, Pairs: []quiz.MatchPair{
			{Premise: "1", Response: "C"},
			{Premise: "2", Response: "A"},
		}},
	})
	doc := docs["item4.xml"]
	for _, want := range []string{
		`baseType="directedPair"`,
		"<value>P1 Q1</value>",
		"<value>P2 Q2</value>",
		`<simpleAssociableChoice identifier="P1" matchMax="1">1</simpleAssociableChoice>`,
		`<simpleAssociableChoice identifier="Q1" matchMax="0">C</simpleAssociableChoice>`,
		"matchInteraction",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("missing %s:\n%s", want, doc)
		}
	}
}

func TestMissingAnswerDefaultsToFirstChoice(t *testing.T) {
	docs := generate(t, quiz.QuestionAnswer{
		Draft: quiz.QuestionDraft{Number: 7, Stem: "Ungraded.", Type: quiz.TypeMCQSingle,
			Options: []quiz.Option{{Letter: "A", Text: "first"}, {Letter: "B", Text: "second"}}},
	})
	doc := docs["item7.xml"]
	if !strings.Contains(doc, "<value>A</value>") {
		t.Errorf("default correct choice missing:\n%s", doc)
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
