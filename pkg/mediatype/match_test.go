package mediatype

import (
	"reflect"
	"testing"
)

func TestMatchMask(t *testing.T) {
	cases := []struct {
		mask  string
		ctype string
		want  bool
	}{
		{"a/e", "a/e", true},
		{"a/e", "e/a", false},
		{"*/*", "a/e", true},
		{"*/*", "e/a", true},
		{"*/e", "a/e", false},
		{"*/e", "e/a", false},
		{"a/*", "a/e", true},
		{"e/*", "e/a", true},
		{"a/*", "e/a", false},
		{"e/*", "a/e", false},
	}
	for _, tc := range cases {
		if got := matchMask(tc.mask, tc.ctype); got != tc.want {
			t.Fatalf("matchMask(%q, %q)=%v, want %v", tc.mask, tc.ctype, got, tc.want)
		}
	}
}

func TestBestMatch(t *testing.T) {
	allowed := []string{"a/a", "a/b", "a/c"}

	cases := []struct {
		name       string
		requested  string
		wantCType  string
		wantParams Params
	}{
		{
			name:       "empty header",
			requested:  "",
			wantCType:  "",
			wantParams: Params{},
		},
		{
			name:       "fixed q picks most specific",
			requested:  "*/*;q=0.7,a/*;q=0.7,a/c;q=0.7",
			wantCType:  "a/c",
			wantParams: Params{NameKey: "a/c", "q": "0.7"},
		},
		{
			name:       "increasing q",
			requested:  "a/a;q=0.3,a/b;q=0.5,a/c;q=0.7",
			wantCType:  "a/c",
			wantParams: Params{NameKey: "a/c", "q": "0.7"},
		},
		{
			name:       "decreasing q",
			requested:  "a/a;q=0.7,a/b;q=0.5,a/c;q=0.3",
			wantCType:  "a/a",
			wantParams: Params{NameKey: "a/a", "q": "0.7"},
		},
		{
			name:       "unparsable q excludes the range",
			requested:  "a/a;q=spam",
			wantCType:  "",
			wantParams: Params{},
		},
		{
			name:       "explicit zero q still matches",
			requested:  "a/b;q=0",
			wantCType:  "a/b",
			wantParams: Params{NameKey: "a/b", "q": "0"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctype, params := BestMatch(tc.requested, allowed)
			if ctype != tc.wantCType {
				t.Fatalf("ctype=%q, want %q", ctype, tc.wantCType)
			}
			if !reflect.DeepEqual(params, tc.wantParams) {
				t.Fatalf("params=%#v, want %#v", params, tc.wantParams)
			}
		})
	}
}

func TestBestMatchDeterministic(t *testing.T) {
	allowed := []string{"a/a", "a/b", "a/c"}
	requested := "a/a;q=0.3,a/b;q=0.5,a/c;q=0.7"

	firstCType, firstParams := BestMatch(requested, allowed)
	for i := 0; i < 10; i++ {
		ctype, params := BestMatch(requested, allowed)
		if ctype != firstCType || !reflect.DeepEqual(params, firstParams) {
			t.Fatalf("run %d diverged: got (%q, %#v), want (%q, %#v)",
				i, ctype, params, firstCType, firstParams)
		}
	}
}
