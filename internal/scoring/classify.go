package scoring

// Band maps scores at or above Min to Label.
type Band struct {
	Min   float64
	Label string
}

// Bands is a first-match classification table, ordered from the highest
// band down. Scores matching no band get Floor.
type Bands struct {
	Steps []Band
	Floor string
}

// Classify returns the label of the first band whose minimum score is met.
// NaN meets no minimum.
func (b Bands) Classify(score float64) string {
	for _, step := range b.Steps {
		if score >= step.Min {
			return step.Label
		}
	}
	return b.Floor
}

// Labels lists every label the table can produce, best first.
func (b Bands) Labels() []string {
	labels := make([]string, 0, len(b.Steps)+1)
	for _, step := range b.Steps {
		labels = append(labels, step.Label)
	}
	return append(labels, b.Floor)
}

// ContinuousBands classifies the 0-10 score.
var ContinuousBands = Bands{
	Steps: []Band{
		{Min: 9, Label: "10 - excelente"},
		{Min: 8, Label: "9 - muito boa"},
		{Min: 7, Label: "8 - boa"},
		{Min: 6, Label: "7 - aceitável"},
		{Min: 5, Label: "6 - limítrofe"},
		{Min: 4, Label: "5 - fraca"},
		{Min: 3, Label: "4 - muito fraca"},
		{Min: 2, Label: "3 - falha"},
		{Min: 1, Label: "2 - ruído"},
	},
	Floor: "1 - indetectável",
}

// DiscreteBands classifies the 0-3 point count.
var DiscreteBands = Bands{
	Steps: []Band{
		{Min: 3, Label: "ótima"},
		{Min: 2, Label: "boa"},
		{Min: 1, Label: "fraca"},
	},
	Floor: "falhou",
}
