package parse

import (
	"reflect"
	"testing"

	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

func TestParseKeySingleLetter(t *testing.T) {
	types := map[int]quiz.QuestionType{1: quiz.TypeMCQSingle}
	res := ParseKey(lines("1. b"), types, nil)
	rec := res.Records[1]
	if rec == nil || rec.Letter != "B" {
		t.Fatalf("record = %+v, want letter B", rec)
	}
}

func TestParseKeyMissingSeparatorRejectsLine(t *testing.T) {
	types := map[int]quiz.QuestionType{1: quiz.TypeMCQSingle}
	res := ParseKey(lines("1 B"), types, nil)
	if len(res.Records) != 0 {
		t.Fatalf("records = %+v, want none", res.Records)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a warning for the rejected line")
	}
}

func TestParseKeyTrueFalseWords(t *testing.T) {
	types := map[int]quiz.QuestionType{
		1: quiz.TypeTrueFalse,
		2: quiz.TypeTrueFalse,
		3: quiz.TypeTrueFalse,
		4: quiz.TypeMCQSingle,
	}
	res := ParseKey(lines(
		"1. True",
		"2. false.",
		"3. F",
		"4. True",
	), types, nil)
	if rec := res.Records[1]; rec == nil || rec.Letter != "T" {
		t.Fatalf("record 1 = %+v, want letter T", rec)
	}
	if rec := res.Records[2]; rec == nil || rec.Letter != "F" {
		t.Fatalf("record 2 = %+v, want letter F", rec)
	}
	if rec := res.Records[3]; rec == nil || rec.Letter != "F" {
		t.Fatalf("record 3 = %+v, want letter F", rec)
	}
	// word mapping applies to true/false questions only
	if _, ok := res.Records[4]; ok {
		t.Error("single-choice payload \"True\" has no option letter and should be rejected")
	}
}

func TestParseKeyMultiSelect(t *testing.T) {
	types := map[int]quiz.QuestionType{1: quiz.TypeMCQMulti}
	res := ParseKey(lines("1. C, a, c"), types, nil)
	rec := res.Records[1]
	if rec == nil || !reflect.DeepEqual(rec.Letters, []string{"A", "C"}) {
		t.Fatalf("letters = %+v, want [A C]", rec)
	}
}

func TestParseKeyFreeTextLiterals(t *testing.T) {
	types := map[int]quiz.QuestionType{1: quiz.TypeFIBText}
	res := ParseKey(lines("1. blue, Blue"), types, nil)
	rec := res.Records[1]
	if rec == nil || !reflect.DeepEqual(rec.Texts, []string{"blue", "Blue"}) {
		t.Fatalf("texts = %+v, want [blue Blue]", rec)
	}
}

func TestParseKeyNumeric(t *testing.T) {
	types := map[int]quiz.QuestionType{1: quiz.TypeFIBNumeric, 2: quiz.TypeFIBNumeric}
	res := ParseKey(lines("1. 3.14", "2. not a number"), types, nil)
	if rec := res.Records[1]; rec == nil || rec.Number != 3.14 {
		t.Fatalf("record 1 = %+v", rec)
	}
	if _, ok := res.Records[2]; ok {
		t.Error("unparsable numeric payload should be rejected")
	}
}

func TestParseKeyMatchingPairs(t *testing.T) {
	types := map[int]quiz.QuestionType{1: quiz.TypeMatching, 2: quiz.TypeMatching}
	res := ParseKey(lines(
		"1. 1=a, bogus, 2-b",
		"2. nothing matches here",
	), types, nil)
	rec := res.Records[1]
	want := []quiz.MatchPair{{Premise: "1", Response: "a"}, {Premise: "2", Response: "b"}}
	if rec == nil || !reflect.DeepEqual(rec.Pairs, want) {
		t.Fatalf("pairs = %+v, want %+v", rec, want)
	}
	if _, ok := res.Records[2]; ok {
		t.Error("line with zero valid pairs should be rejected whole")
	}
}

func TestParseKeyOrdering(t *testing.T) {
	types := map[int]quiz.QuestionType{1: quiz.TypeOrdering, 2: quiz.TypeOrdering}
	res := ParseKey(lines("1. B, A, C", "2. B A C"), types, nil)
	want := []string{"B", "A", "C"}
	if rec := res.Records[1]; rec == nil || !reflect.DeepEqual(rec.Sequence, want) {
		t.Fatalf("list-split sequence = %+v", rec)
	}
	if rec := res.Records[2]; rec == nil || !reflect.DeepEqual(rec.Sequence, want) {
		t.Fatalf("whitespace-split sequence = %+v", rec)
	}
}

func TestParseKeyPrefixesAndDuplicates(t *testing.T) {
	types := map[int]quiz.QuestionType{1: quiz.TypeMCQSingle}
	res := ParseKey(lines(
		"Answer: 1. A",
		"Key: 1. C",
	), types, nil)
	rec := res.Records[1]
	if rec == nil || rec.Letter != "C" {
		t.Fatalf("record = %+v, want last-write C", rec)
	}
	if len(res.Warnings) == 0 {
		t.Error("duplicate line should warn")
	}
}

func TestParseKeyUnknownNumberSkipped(t *testing.T) {
	types := map[int]quiz.QuestionType{1: quiz.TypeMCQSingle}
	res := ParseKey(lines("7. B"), types, nil)
	if len(res.Records) != 0 {
		t.Fatalf("records = %+v", res.Records)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}
