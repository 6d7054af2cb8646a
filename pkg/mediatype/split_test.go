package mediatype

import (
	"reflect"
	"testing"
)

func TestQuotedSplit(t *testing.T) {
	cases := []struct {
		name string
		in   string
		sep  byte
		want []string
	}{
		{
			name: "simple comma",
			in:   ",value1,value2 , value 3 ,",
			sep:  ',',
			want: []string{"", "value1", "value2 ", " value 3 ", ""},
		},
		{
			name: "comma inside quotes",
			in:   `application/example;q=1;version="2,3\"",application/example;q=0.5;version="3;4"`,
			sep:  ',',
			want: []string{
				`application/example;q=1;version="2,3\""`,
				`application/example;q=0.5;version="3;4"`,
			},
		},
		{
			name: "simple semicolon",
			in:   ";value1;value2 ; value 3 ;",
			sep:  ';',
			want: []string{"", "value1", "value2 ", " value 3 ", ""},
		},
		{
			name: "semicolon inside quotes",
			in:   `application/example;q=1;version="2;3\""`,
			sep:  ';',
			want: []string{"application/example", "q=1", `version="2;3\""`},
		},
		{
			name: "unterminated quote tolerated",
			in:   `a;b="open;still same field`,
			sep:  ';',
			want: []string{"a", `b="open;still same field`},
		},
		{
			name: "single field",
			in:   "a/b",
			sep:  ';',
			want: []string{"a/b"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := QuotedSplit(tc.in, tc.sep)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("QuotedSplit(%q, %q)=%#v, want %#v", tc.in, tc.sep, got, tc.want)
			}
		})
	}
}

func TestUnquote(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"test", "test"},
		{"", ""},
		{`"`, ""},
		{`""`, ""},
		{`"test"`, "test"},
		{`"te"st"`, `te"st`},
		{`"open`, `"open`},
	}
	for _, tc := range cases {
		if got := Unquote(tc.in); got != tc.want {
			t.Fatalf("Unquote(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}
