package export

// Dataset is tabular export content. Rows are keyed by header.
type Dataset struct {
	Title   string
	Notes   []string
	Headers []string
	// Weights sizes PDF columns relative to each other; missing entries count as 1.
	Weights []float64
	Rows    []map[string]string
	// HighlightColumn marks PDF rows whose value in that column is "true".
	HighlightColumn string
}

func (d Dataset) weight(i int) float64 {
	if i < len(d.Weights) && d.Weights[i] > 0 {
		return d.Weights[i]
	}
	return 1
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		out[i] = row[h]
	}
	return out
}
