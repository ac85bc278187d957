package jsonpath

import (
	"errors"
	"testing"

	"github.com/tidwall/gjson"
)

func TestAssign(t *testing.T) {
	cases := []struct {
		doc, expr, raw, want string
	}{
		{`{"meta":{"foo":"bar"}}`, "$.meta.baz", `"x"`, `{"meta":{"foo":"bar","baz":"x"}}`},
		{`{}`, "$.a.b.c", `1`, `{"a":{"b":{"c":1}}}`},
		{`{"payload":{}}`, "payload", `{"input":{"k":"v"}}`, `{"payload":{"input":{"k":"v"}}}`},
		{`{"a":"scalar"}`, "$.a.b", `true`, `{"a":{"b":true}}`},
		{`{"a":[1,2]}`, "$.a[1]", `9`, `{"a":[1,9]}`},
		{`{"a":{"b":1}}`, "$.a.b", `2`, `{"a":{"b":2}}`},
	}
	for _, c := range cases {
		got, err := Assign([]byte(c.doc), MustParse(c.expr), []byte(c.raw))
		if err != nil {
			t.Fatalf("Assign(%s, %q) error: %v", c.doc, c.expr, err)
		}
		if string(got) != c.want {
			t.Errorf("Assign(%s, %q, %s) = %s, want %s", c.doc, c.expr, c.raw, got, c.want)
		}
	}
}

func TestAssignDoesNotMutateInput(t *testing.T) {
	doc := []byte(`{"meta":{"foo":"bar"}}`)
	orig := string(doc)
	if _, err := Assign(doc, MustParse("$.meta.foo"), []byte(`"changed"`)); err != nil {
		t.Fatal(err)
	}
	if string(doc) != orig {
		t.Fatalf("input mutated: %s", doc)
	}
}

func TestAssignRejects(t *testing.T) {
	for _, expr := range []string{"$", "$.items[*]"} {
		if _, err := Assign([]byte(`{}`), MustParse(expr), []byte(`1`)); !errors.Is(err, ErrNotAssignable) {
			t.Errorf("Assign(%q) error = %v, want ErrNotAssignable", expr, err)
		}
	}
	if _, err := Assign([]byte(`{}`), MustParse("$.a"), []byte(`{nope`)); !errors.Is(err, ErrNotAssignable) {
		t.Errorf("Assign invalid raw error = %v, want ErrNotAssignable", err)
	}
}

func TestAssignEscapedKey(t *testing.T) {
	got, err := Assign([]byte(`{}`), MustParse(`$['a.b']`), []byte(`1`))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := First(MustParse(`$['a.b']`), gjson.ParseBytes(got)); !ok || v.Raw != "1" {
		t.Fatalf("escaped key not written: %s", got)
	}
}

func TestDelete(t *testing.T) {
	got, err := Delete([]byte(`{"a":1,"replace":{"Key":"k"}}`), MustParse("replace"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("Delete = %s", got)
	}
	got, err = Delete([]byte(`{"a":1}`), MustParse("missing"))
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("Delete missing = %s, %v", got, err)
	}
}
