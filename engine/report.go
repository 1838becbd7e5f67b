package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ReportStatistics summarizes a report's imitation similarities and motif
// occurrence counts for hosts that display corpus-level dashboards.
func ReportStatistics(report *Report) map[string]float64 {
	if report == nil {
		return map[string]float64{}
	}

	out := map[string]float64{
		"motifs":           float64(len(report.Motifs)),
		"sequences":        float64(len(report.Sequences)),
		"imitations":       float64(len(report.Imitations)),
		"crab_canon_pairs": float64(len(report.CrabCanonPairs)),
	}

	if len(report.Imitations) > 0 {
		similarities := make([]float64, len(report.Imitations))
		for i, p := range report.Imitations {
			similarities[i] = p.Similarity
		}
		sorted := make([]float64, len(similarities))
		copy(sorted, similarities)
		sort.Float64s(sorted)

		out["imitation_similarity_mean"] = stat.Mean(similarities, nil)
		out["imitation_similarity_median"] = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		if len(similarities) > 1 {
			out["imitation_similarity_std"] = math.Sqrt(stat.Variance(similarities, nil))
		}
	}

	if len(report.Motifs) > 0 {
		counts := make([]float64, len(report.Motifs))
		for i, m := range report.Motifs {
			counts[i] = float64(len(m.Occurrences))
		}
		out["motif_occurrences_mean"] = stat.Mean(counts, nil)
		out["motif_occurrences_max"] = counts[0] // miner output is count-descending
	}

	return out
}
