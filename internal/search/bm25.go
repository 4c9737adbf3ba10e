package search

import "math"

const (
	k1 = 1.2
	b  = 0.75
)

// score computes the BM25 score of every document in docs for terms.
func (x *Index) score(terms []string, docs []int) map[int]float64 {
	want := make(map[int]struct{}, len(docs))
	for _, d := range docs {
		want[d] = struct{}{}
	}
	scores := make(map[int]float64, len(docs))
	total := float64(len(x.docs))
	for _, term := range terms {
		postings := x.postings[term]
		idf := computeIDF(total, float64(len(postings)))
		for _, p := range postings {
			if _, ok := want[p.doc]; !ok {
				continue
			}
			scores[p.doc] += idf * computeTFNorm(float64(p.freq), float64(x.docLen[p.doc]), x.avgLen)
		}
	}
	for d, s := range scores {
		scores[d] = math.Round(s*10000) / 10000
	}
	return scores
}

func computeIDF(totalDocs, docFreq float64) float64 {
	return math.Log((totalDocs-docFreq)/(docFreq+0.5) + 1)
}

func computeTFNorm(termFreq, docLength, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	denominator := termFreq + k1*(1-b+b*docLength/avgDocLength)
	return (termFreq * (k1 + 1)) / denominator
}
