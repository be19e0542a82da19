package vocab

import (
	"testing"

	"github.com/screenager/constrain/kinderr"
)

func TestNewAndLookup(t *testing.T) {
	v, err := New(0, map[string][]uint32{
		"hi":  {1, 2},
		"bye": {3},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v.Size() != 3 {
		t.Fatalf("Size = %d, want 3", v.Size())
	}
	ids, ok := v.Get("hi")
	if !ok || len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("Get(hi) = %v, %v", ids, ok)
	}
	tok, ok := v.GetTokenByID(3)
	if !ok || tok != "bye" {
		t.Fatalf("GetTokenByID(3) = %q, %v", tok, ok)
	}
}

func TestInsertRejectsEOS(t *testing.T) {
	v, err := New(5, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = v.Insert("eos-bytes", 5)
	if err == nil {
		t.Fatal("expected EOSDisallowed error")
	}
	if !kinderr.Is(err, kinderr.EOSDisallowed) {
		t.Fatalf("expected EOSDisallowed, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	v, err := New(0, map[string][]uint32{"a": {1}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v.Remove("a")
	if _, ok := v.Get("a"); ok {
		t.Fatal("expected a to be removed")
	}
	if _, ok := v.GetTokenByID(1); ok {
		t.Fatal("expected id 1 to be removed")
	}
}

func TestDisplayForm(t *testing.T) {
	cases := map[string]string{
		"▁hello": " hello",
		"<0x20>": " ",
		"hello":  "hello",
	}
	for in, want := range cases {
		if got := DisplayForm(in); got != want {
			t.Errorf("DisplayForm(%q) = %q, want %q", in, got, want)
		}
	}
}
