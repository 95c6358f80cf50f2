package record_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/counsel/pkg/record"
)

func mustParse(t *testing.T, s string) record.Value {
	t.Helper()
	v, err := record.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return v
}

func TestParsePreservesKeyOrder(t *testing.T) {
	input := `{"zeta":1,"alpha":{"b":true,"a":null},"mid":["x",2.5,{"k":"v"}]}`
	v := mustParse(t, input)

	if got := v.Keys(); len(got) != 3 || got[0] != "zeta" || got[1] != "alpha" || got[2] != "mid" {
		t.Errorf("Keys() = %v, want [zeta alpha mid]", got)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(out) != input {
		t.Errorf("Marshal = %s, want %s", out, input)
	}
}

func TestParseKinds(t *testing.T) {
	v := mustParse(t, `{"s":"text","n":42,"b":false,"z":null,"o":{},"l":[]}`)

	tests := []struct {
		key  string
		want record.Kind
	}{
		{"s", record.KindString},
		{"n", record.KindNumber},
		{"b", record.KindBool},
		{"z", record.KindNull},
		{"o", record.KindObject},
		{"l", record.KindList},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f, ok := v.Get(tt.key)
			if !ok {
				t.Fatalf("Get(%q) missing", tt.key)
			}
			if f.Kind() != tt.want {
				t.Errorf("Kind = %s, want %s", f.Kind(), tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{``, `{"a":`, `{"a":1} {"b":2}`, `[1,2`} {
		if _, err := record.Parse([]byte(input)); !errors.Is(err, record.ErrInvalidJSON) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidJSON", input, err)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		v    record.Value
		want bool
	}{
		{"null", record.Null(), true},
		{"empty string", record.String(""), true},
		{"empty object", record.Object(), true},
		{"empty list", record.List(), true},
		{"zero", record.Number(0), false},
		{"false", record.Bool(false), false},
		{"object with null field", record.Object(record.KV("a", record.Null())), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqualIgnoresKeyOrder(t *testing.T) {
	a := mustParse(t, `{"x":1,"y":{"p":[1,2]}}`)
	b := mustParse(t, `{"y":{"p":[1,2]},"x":1}`)
	c := mustParse(t, `{"y":{"p":[2,1]},"x":1}`)

	if !a.Equal(b) {
		t.Error("objects with reordered keys should be equal")
	}
	if a.Equal(c) {
		t.Error("lists with reordered items should not be equal")
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	base := record.Object(record.KV("a", record.Number(1)))
	next := base.With("b", record.String("two"))

	if base.Len() != 1 {
		t.Errorf("base.Len() = %d, want 1", base.Len())
	}
	if next.Len() != 2 {
		t.Errorf("next.Len() = %d, want 2", next.Len())
	}
}

func TestLookup(t *testing.T) {
	v := mustParse(t, `{"customer":{"authorized_signatory":{"name":"Ada"}}}`)

	got, ok := v.Lookup("customer", "authorized_signatory", "name")
	if !ok {
		t.Fatal("Lookup missing")
	}
	if s, _ := got.Str(); s != "Ada" {
		t.Errorf("Lookup = %q, want Ada", s)
	}

	if _, ok := v.Lookup("customer", "billing_address"); ok {
		t.Error("Lookup of absent path should fail")
	}
}

func TestStrings(t *testing.T) {
	v := mustParse(t, `["cap below $1M", 3, {"k": "v"}, null]`)
	want := []string{"cap below $1M", "3", `{"k":"v"}`, "null"}
	if diff := cmp.Diff(want, v.Strings()); diff != "" {
		t.Errorf("Strings mismatch (-want +got):\n%s", diff)
	}
	if got := record.String("x").Strings(); got != nil {
		t.Errorf("Strings on string = %v, want nil", got)
	}
}
