// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

// OpKind classifies one step of an alignment.
type OpKind byte

const (
	OpHit OpKind = 'H'
	OpSub OpKind = 'S'
	OpIns OpKind = 'I'
	OpDel OpKind = 'D'
)

// Op is one aligned pair of tokens. Ref is empty for insertions, Hyp for
// deletions.
type Op struct {
	Kind OpKind
	Ref  string
	Hyp  string
}

// Align computes a minimum-edit-distance alignment between reference and
// hypothesis token sequences, preferring hits, then substitutions.
func Align(ref, hyp []string) []Op {
	n, m := len(ref), len(hyp)

	// dist[i][j] = edit distance between ref[:i] and hyp[:j].
	dist := make([][]int, n+1)
	for i := range dist {
		dist[i] = make([]int, m+1)
		dist[i][0] = i
	}
	for j := 0; j <= m; j++ {
		dist[0][j] = j
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if ref[i-1] == hyp[j-1] {
				dist[i][j] = dist[i-1][j-1]
				continue
			}
			best := dist[i-1][j-1] // substitution
			if dist[i-1][j] < best {
				best = dist[i-1][j] // deletion
			}
			if dist[i][j-1] < best {
				best = dist[i][j-1] // insertion
			}
			dist[i][j] = best + 1
		}
	}

	// Trace back from the corner.
	ops := make([]Op, 0, max(n, m))
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && ref[i-1] == hyp[j-1] && dist[i][j] == dist[i-1][j-1]:
			ops = append(ops, Op{Kind: OpHit, Ref: ref[i-1], Hyp: hyp[j-1]})
			i--
			j--
		case i > 0 && j > 0 && dist[i][j] == dist[i-1][j-1]+1:
			ops = append(ops, Op{Kind: OpSub, Ref: ref[i-1], Hyp: hyp[j-1]})
			i--
			j--
		case i > 0 && dist[i][j] == dist[i-1][j]+1:
			ops = append(ops, Op{Kind: OpDel, Ref: ref[i-1]})
			i--
		default:
			ops = append(ops, Op{Kind: OpIns, Hyp: hyp[j-1]})
			j--
		}
	}

	// Reverse into reading order.
	for a, b := 0, len(ops)-1; a < b; a, b = a+1, b-1 {
		ops[a], ops[b] = ops[b], ops[a]
	}
	return ops
}
