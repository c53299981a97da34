package stream

import "testing"

func TestFormatIdRoundTrip(t *testing.T) {
	tests := []string{"137", "137+251", "137+251+sub-en", ""}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			id := ParseFormatId(s)
			if id.String() != s {
				t.Errorf("String() = %q, want %q", id.String(), s)
			}

			var joined []string
			for _, c := range id.CompoundIds() {
				joined = append(joined, c.String())
			}
			got := ""
			for i, j := range joined {
				if i > 0 {
					got += "+"
				}
				got += j
			}
			if got != id.String() {
				t.Errorf("compoundIds join = %q, want %q", got, id.String())
			}
		})
	}
}

func TestFormatIdParseDiscardsEmptyTokens(t *testing.T) {
	id := ParseFormatId("137++251+")
	if id.String() != "137+251" {
		t.Errorf("got %q, want %q", id.String(), "137+251")
	}
}

func TestFormatIdIsEmpty(t *testing.T) {
	if !ParseFormatId("").IsEmpty() {
		t.Error("expected empty FormatId to report IsEmpty")
	}
	if ParseFormatId("137").IsEmpty() {
		t.Error("expected non-empty FormatId to report !IsEmpty")
	}
}

func TestFormatIdNoInternalSort(t *testing.T) {
	// Video-first ordering must survive parsing: "299+251" must never
	// become "251+299".
	id := ParseFormatId("299+251")
	got := id.CompoundIds()
	if len(got) != 2 || got[0].String() != "299" || got[1].String() != "251" {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestFormatIdEqualAndLess(t *testing.T) {
	a := ParseFormatId("137+251")
	b := ParseFormatId("137+251")
	c := ParseFormatId("137+250")

	if !a.Equal(b) {
		t.Error("expected a.Equal(b)")
	}
	if a.Equal(c) {
		t.Error("expected !a.Equal(c)")
	}
	if !c.Less(a) {
		t.Error("expected c.Less(a) (lexicographic '0' < '1')")
	}
}
