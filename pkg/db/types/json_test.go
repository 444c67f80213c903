package dbtypes

import "testing"

type sample struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

func TestJSONListValueEmpty(t *testing.T) {
	var l JSONList[sample]
	v, err := l.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "[]" {
		t.Fatalf("expected empty array literal, got %v", v)
	}
}

func TestJSONListScan(t *testing.T) {
	var l JSONList[sample]
	if err := l.Scan([]byte(`[{"title":"Le Piège","year":2022}]`)); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if len(l) != 1 || l[0].Title != "Le Piège" || l[0].Year != 2022 {
		t.Fatalf("unexpected scan result %+v", l)
	}

	var empty JSONList[sample]
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("unexpected nil scan error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected non-nil empty list, got %#v", empty)
	}

	if err := empty.Scan(42); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if err := empty.Scan("not json"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestJSONListCloneIsIndependent(t *testing.T) {
	orig := JSONList[string]{"a", "b"}
	clone := orig.Clone()
	clone[0] = "z"
	if orig[0] != "a" {
		t.Fatalf("clone shares backing array")
	}
}
