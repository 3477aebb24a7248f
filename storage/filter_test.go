package storage

import "testing"

func TestFilterSingleClause(t *testing.T) {
	got := new(filter).eqString("Username", "u1").String()
	if got != "Username eq 'u1'" {
		t.Fatalf("unexpected filter: %s", got)
	}
}

func TestFilterJoinsWithAnd(t *testing.T) {
	got := new(filter).eqString("Username", "u1").eqString("ListId", "l1").eqBool("Complete", false).String()
	want := "Username eq 'u1' and ListId eq 'l1' and Complete eq false"
	if got != want {
		t.Fatalf("unexpected filter: %s", got)
	}
}

func TestFilterEscapesQuotes(t *testing.T) {
	got := new(filter).eqString("Username", "o'brien' or true").String()
	if got != "Username eq 'o''brien'' or true'" {
		t.Fatalf("quotes not escaped: %s", got)
	}
}

func TestFilterBoolTrue(t *testing.T) {
	got := new(filter).eqBool("Pinned", true).String()
	if got != "Pinned eq true" {
		t.Fatalf("unexpected filter: %s", got)
	}
}
