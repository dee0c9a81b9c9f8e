// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"math"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ABADIE (Jean), méd.", "abadie jean méd"},
		{"  A\t B \n C ", "a b c"},
		{"méd.1861", "méd 1861"},
		{"", ""},
		{"12, rue de l'École", "12 rue de l école"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlatten(t *testing.T) {
	tsv := "nom\tannée\tnotes\tadresse\thoraires\nABADIE\t1861\t\t12 rue X\t2-4\nBOYER\t1870\t\t3 rue Y\t"
	got := Flatten(tsv)
	if strings.Contains(got, "nom") {
		t.Errorf("header not dropped: %q", got)
	}
	if strings.Contains(got, "\t") || strings.Contains(got, "\n") {
		t.Errorf("control characters left in: %q", got)
	}
	if !strings.Contains(got, "ABADIE 1861") || !strings.Contains(got, "BOYER") {
		t.Errorf("content lost: %q", got)
	}
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestScorePair_WER(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		hyp  string
		want float64
	}{
		{"identical", "a b c d", "a b c d", 0},
		{"one substitution", "a b c d", "a x c d", 0.25},
		{"one deletion", "a b c d", "a c d", 0.25},
		{"one insertion", "a b c d", "a b x c d", 0.25},
		{"everything wrong", "a b", "x y", 1},
		{"empty hypothesis", "a b c d", "", 1},
		{"both empty", "", "", 0},
		{"empty reference", "", "a", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScorePair(tt.ref, tt.hyp)
			if !approx(got.WER, tt.want) {
				t.Errorf("WER = %v, want %v", got.WER, tt.want)
			}
		})
	}
}

func TestScorePair_CER(t *testing.T) {
	// "abcd" vs "abed": 1 substitution over 4 characters.
	got := ScorePair("abcd", "abed")
	if !approx(got.CER, 0.25) {
		t.Errorf("CER = %v, want 0.25", got.CER)
	}
	if !approx(got.WER, 1) {
		t.Errorf("WER = %v, want 1", got.WER)
	}
}

func TestAlign_Ops(t *testing.T) {
	ops := Align([]string{"a", "b", "c"}, []string{"a", "x", "c", "y"})
	counts := CountOps(ops)
	if counts.Hits != 2 || counts.Subs != 1 || counts.Ins != 1 || counts.Dels != 0 {
		t.Errorf("counts = %+v", counts)
	}

	// Alignment must replay both sequences in order.
	var ref, hyp []string
	for _, op := range ops {
		if op.Ref != "" {
			ref = append(ref, op.Ref)
		}
		if op.Hyp != "" {
			hyp = append(hyp, op.Hyp)
		}
	}
	if strings.Join(ref, " ") != "a b c" || strings.Join(hyp, " ") != "a x c y" {
		t.Errorf("replay: ref = %v, hyp = %v", ref, hyp)
	}
}

func TestWriteAlignment(t *testing.T) {
	var b strings.Builder
	ops := Align([]string{"abadie", "jean"}, []string{"abadie", "jeen"})
	WriteAlignment(&b, ops, 100)
	out := b.String()
	if !strings.Contains(out, "REF: abadie jean") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "HYP: abadie jeen") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "S") {
		t.Errorf("no substitution marker: %q", out)
	}
}
