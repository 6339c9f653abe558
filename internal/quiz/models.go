package quiz

// QuestionType classifies a question for answer decoding and export.
type QuestionType string

const (
	TypeMCQSingle  QuestionType = "mcq_single"
	TypeMCQMulti   QuestionType = "mcq_multi"
	TypeTrueFalse  QuestionType = "true_false"
	TypeFIBText    QuestionType = "fib_text"
	TypeFIBNumeric QuestionType = "fib_numeric"
	TypeShortWord  QuestionType = "short_answer"
	TypeEssay      QuestionType = "essay"
	TypeMatching   QuestionType = "matching"
	TypeOrdering   QuestionType = "ordering"
)

// Option is one lettered choice. Letters need not be contiguous and are
// compared case-insensitively.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// QuestionDraft is one question as recovered by the structural parser,
// before its answer is known. Number is unique across a run.
type QuestionDraft struct {
	Number    int          `json:"number"`
	Stem      string       `json:"stem"`
	Options   []Option     `json:"options,omitempty"`
	Type      QuestionType `json:"type"`
	HasImages bool         `json:"has_images,omitempty"`
}

// MatchPair is one premise→response pair of a matching answer.
type MatchPair struct {
	Premise  string `json:"premise"`
	Response string `json:"response"`
}

// AnswerRecord is a tagged union over QuestionType. Exactly the fields for
// its Kind are populated:
//
//	mcq_single, true_false        Letter
//	mcq_multi                     Letters (deduplicated, ascending)
//	fib_text, short_answer, essay Texts (accepted literals)
//	fib_numeric                   Number
//	matching                      Pairs
//	ordering                      Sequence
type AnswerRecord struct {
	Kind     QuestionType `json:"kind"`
	Letter   string       `json:"letter,omitempty"`
	Letters  []string     `json:"letters,omitempty"`
	Texts    []string     `json:"texts,omitempty"`
	Number   float64      `json:"number,omitempty"`
	Pairs    []MatchPair  `json:"pairs,omitempty"`
	Sequence []string     `json:"sequence,omitempty"`
}

// QuestionAnswer joins a finalized draft with its decoded answer. Answer is
// nil when the key had no usable line for the number. This is the sole input
// every export backend sees.
type QuestionAnswer struct {
	Draft  QuestionDraft `json:"draft"`
	Answer *AnswerRecord `json:"answer,omitempty"`
}
