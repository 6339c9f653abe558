package parse

import "testing"

func TestApplyQuickFixes(t *testing.T) {
	cases := []struct{ in, want string }{
		{"1)   What is it?", "1. What is it?"},
		{"3 - Third thing", "3. Third thing"},
		{"a. first option", "(a) first option"},
		{"(B) second option", "(B) second option"},
		{"12: 4", "12. 4"},
		{"no markers at all", "no markers at all"},
	}
	for _, tc := range cases {
		got := ApplyQuickFixes(lines(tc.in))
		if got[0].Text != tc.want {
			t.Errorf("quick fixes %q = %q, want %q", tc.in, got[0].Text, tc.want)
		}
	}
}

func TestApplyQuickFixesFeedsStructure(t *testing.T) {
	fixed := ApplyQuickFixes(lines(
		"1)Broken question marker",
		"a. first",
		"b. second",
	))
	st, err := Structure(fixed, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Drafts) != 1 || len(st.Drafts[0].Options) != 2 {
		t.Fatalf("drafts = %+v", st.Drafts)
	}
}
