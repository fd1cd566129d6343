package jsonval

import (
	"encoding/json"
	"testing"

	"github.com/theory/jsonpath"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func TestFirst(t *testing.T) {
	doc := decode(t, `{"Detail":{"de":{"Title":"Wanderung"}},"Nil":null}`)

	if v, ok := First(jsonpath.MustParse("$.Detail.de.Title"), doc); !ok || v != "Wanderung" {
		t.Errorf("First = %v, %v", v, ok)
	}
	if _, ok := First(jsonpath.MustParse("$.Detail.en.Title"), doc); ok {
		t.Error("expected missing path to be absent")
	}
	if _, ok := First(jsonpath.MustParse("$.Nil"), doc); ok {
		t.Error("expected JSON null to be absent")
	}
}

func TestNumber(t *testing.T) {
	doc := decode(t, `{"Altitude":1200.5,"Name":"x"}`)

	if n, ok := Number(jsonpath.MustParse("$.Altitude"), doc); !ok || n != 1200.5 {
		t.Errorf("Number = %v, %v", n, ok)
	}
	if _, ok := Number(jsonpath.MustParse("$.Name"), doc); ok {
		t.Error("string coerced to number")
	}
}

func TestStrings(t *testing.T) {
	doc := decode(t, `{"SmgTags":["winter","ski"],"Source":"lts"}`)

	tags := Strings(jsonpath.MustParse("$.SmgTags"), doc)
	if len(tags) != 2 || tags[0] != "winter" || tags[1] != "ski" {
		t.Errorf("Strings = %v", tags)
	}
	src := Strings(jsonpath.MustParse("$.Source"), doc)
	if len(src) != 1 || src[0] != "lts" {
		t.Errorf("scalar Strings = %v", src)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name    string
		v, want any
		eq      bool
	}{
		{"string match", "a", "a", true},
		{"string mismatch", "a", "b", false},
		{"int vs float", 3, 3.0, true},
		{"bool", true, true, true},
		{"array any-element", []any{"x", "y"}, "y", true},
		{"array no match", []any{"x"}, "z", false},
		{"type mismatch", "3", 3.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.v, tt.want); got != tt.eq {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.v, tt.want, got, tt.eq)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"numbers", 1.0, 2.0, -1},
		{"equal numbers", 2.0, 2.0, 0},
		{"strings case-insensitive", "Apple", "banana", -1},
		{"absent before present", nil, "x", -1},
		{"both absent", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
