package version

import (
	"encoding/json"
	stderrors "errors"
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/uvm/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"2017.1.2f3", Version{2017, 1, 2, Final, 3, ""}},
		{"2023.1.0b3", Version{2023, 1, 0, Beta, 3, ""}},
		{"5.6.7p1", Version{5, 6, 7, Patch, 1, ""}},
		{"2019.3.0a10", Version{2019, 3, 0, Alpha, 10, ""}},
		{"2021.3.5f1 (40eb3a945986)", Version{2021, 3, 5, Final, 1, "40eb3a945986"}},
		{"2021.3.5f1(40eb3a945986)", Version{2021, 3, 5, Final, 1, "40eb3a945986"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	inputs := []string{
		"",
		"2017",
		"2017.1",
		"2017.1.2",
		"2017.1.2x3",
		"2017.1.2f",
		"20171.1.2f3",
		"2017.1.2f12345",
		"v2017.1.2f3",
		"2017.1.2f3 (xyz)",
		"2017.1.2f3 extra",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", in)
			}
			if !stderrors.Is(err, ErrMalformed) {
				t.Errorf("error %v does not wrap ErrMalformed", err)
			}
			var pe *ParseError
			if !stderrors.As(err, &pe) || pe.Input != in {
				t.Errorf("error %v is not a *ParseError for %q", err, in)
			}
			if !errors.Is(err, errors.ErrCodeInvalidVersion) {
				t.Errorf("error %v missing INVALID_VERSION code", err)
			}
		})
	}
}

func TestOrderingExample(t *testing.T) {
	a := MustParse("2017.1.2f3")
	b := MustParse("2017.1.2p3")
	c := MustParse("2017.1.3b1")

	if !a.Less(b) {
		t.Errorf("%s should sort before %s", a, b)
	}
	if !b.Less(c) {
		t.Errorf("%s should sort before %s", b, c)
	}
	if !a.Less(c) {
		t.Errorf("%s should sort before %s", a, c)
	}
}

func TestReleaseTypeOrder(t *testing.T) {
	vs := []string{"2020.1.0a1", "2020.1.0b1", "2020.1.0f1", "2020.1.0p1"}
	for i := 1; i < len(vs); i++ {
		if Compare(MustParse(vs[i-1]), MustParse(vs[i])) >= 0 {
			t.Errorf("%s should sort before %s", vs[i-1], vs[i])
		}
	}
}

func TestHashIgnoredForEquality(t *testing.T) {
	a := MustParse("2021.3.5f1")
	b := MustParse("2021.3.5f1 (40eb3a945986)")

	if !a.Equal(b) || Compare(a, b) != 0 {
		t.Errorf("versions differing only by hash should be equal")
	}
	if a.Less(b) || b.Less(a) {
		t.Errorf("versions differing only by hash should not be ordered")
	}
}

func randomVersion(r *rand.Rand) Version {
	return Version{
		Major:    r.Uint64N(10000),
		Minor:    r.Uint64N(10000),
		Patch:    r.Uint64N(10000),
		Type:     ReleaseType(r.IntN(4)),
		Revision: r.Uint64N(10000),
	}
}

// smallVersion draws from a narrow range so equal and near-equal values
// are common.
func smallVersion(r *rand.Rand) Version {
	v := Version{
		Major:    r.Uint64N(2),
		Minor:    r.Uint64N(2),
		Patch:    r.Uint64N(2),
		Type:     ReleaseType(r.IntN(4)),
		Revision: r.Uint64N(2),
	}
	if r.IntN(2) == 0 {
		v.Hash = "abc123"
	}
	return v
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 2000 {
		v := randomVersion(r)
		got, err := Parse(v.String())
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", v.String(), err)
		}
		if got != v {
			t.Fatalf("Parse(String(%+v)) = %+v", v, got)
		}
	}
}

func TestRoundTripWithHash(t *testing.T) {
	v := MustParse("2022.2.1f1 (0ab1cd)")
	got, err := Parse(v.FullString())
	if err != nil {
		t.Fatal(err)
	}
	if got != v {
		t.Errorf("Parse(FullString()) = %+v, want %+v", got, v)
	}
}

func TestCompareIsStrictTotalOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for range 3000 {
		a, b, c := smallVersion(r), smallVersion(r), smallVersion(r)

		if a.Less(a) {
			t.Fatalf("irreflexivity violated for %+v", a)
		}

		n := 0
		if a.Less(b) {
			n++
		}
		if a.Equal(b) {
			n++
		}
		if b.Less(a) {
			n++
		}
		if n != 1 {
			t.Fatalf("trichotomy violated for %+v, %+v", a, b)
		}

		if Compare(a, b) != -Compare(b, a) {
			t.Fatalf("antisymmetry violated for %+v, %+v", a, b)
		}

		if a.Less(b) && b.Less(c) && !a.Less(c) {
			t.Fatalf("transitivity violated for %+v, %+v, %+v", a, b, c)
		}
	}
}

func TestSort(t *testing.T) {
	vs := []Version{
		MustParse("2021.3.1f1"),
		MustParse("2019.4.40f1"),
		MustParse("2021.3.1b2"),
		MustParse("2022.1.0a5"),
	}
	Sort(vs)

	want := []string{"2019.4.40f1", "2021.3.1b2", "2021.3.1f1", "2022.1.0a5"}
	for i, v := range vs {
		if v.String() != want[i] {
			t.Errorf("vs[%d] = %s, want %s", i, v, want[i])
		}
	}
}

func TestAtLeast(t *testing.T) {
	if !MustParse("2018.1.0a1").AtLeast(2018, 1) {
		t.Error("2018.1.0a1 should be at least 2018.1")
	}
	if MustParse("2017.4.30f1").AtLeast(2018, 1) {
		t.Error("2017.4.30f1 should not be at least 2018.1")
	}
}

func TestJSON(t *testing.T) {
	type record struct {
		Version Version `json:"version"`
	}

	in := record{Version: MustParse("2021.3.5f1 (40eb3a945986)")}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"version":"2021.3.5f1 (40eb3a945986)"}` {
		t.Errorf("Marshal = %s", data)
	}

	var out record
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("Unmarshal = %+v, want %+v", out, in)
	}

	if err := json.Unmarshal([]byte(`{"version":"nope"}`), &out); err == nil {
		t.Error("expected error for malformed version")
	}
}
