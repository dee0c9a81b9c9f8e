// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

// Counts tallies the operations of one alignment.
type Counts struct {
	Hits int
	Subs int
	Ins  int
	Dels int
}

// CountOps tallies an alignment.
func CountOps(ops []Op) Counts {
	var c Counts
	for _, op := range ops {
		switch op.Kind {
		case OpHit:
			c.Hits++
		case OpSub:
			c.Subs++
		case OpIns:
			c.Ins++
		case OpDel:
			c.Dels++
		}
	}
	return c
}

// Rate returns the error rate (S+D+I)/(S+D+H). With an empty reference the
// rate is 0 when the hypothesis is also empty, 1 otherwise.
func (c Counts) Rate() float64 {
	denom := c.Subs + c.Dels + c.Hits
	if denom == 0 {
		if c.Ins > 0 {
			return 1
		}
		return 0
	}
	return float64(c.Subs+c.Dels+c.Ins) / float64(denom)
}

// Score holds the metrics for one reference/hypothesis pair.
type Score struct {
	WER      float64
	CER      float64
	RefWords int
	HypWords int
	WordOps  []Op
}

// ScorePair computes WER and CER between normalized reference and
// hypothesis text. The word-level alignment is kept for reporting.
func ScorePair(ref, hyp string) Score {
	refWords, hypWords := Words(ref), Words(hyp)
	wordOps := Align(refWords, hypWords)
	charOps := Align(Chars(ref), Chars(hyp))
	return Score{
		WER:      CountOps(wordOps).Rate(),
		CER:      CountOps(charOps).Rate(),
		RefWords: len(refWords),
		HypWords: len(hypWords),
		WordOps:  wordOps,
	}
}
