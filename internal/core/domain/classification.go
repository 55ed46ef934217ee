package domain

import "time"

// Prediction is the accumulated classification output for a staged item.
// Providers run in preference order and fill only the fields they produced;
// an empty field never clears an earlier provider's value.
type Prediction struct {
	ContextID    string            `json:"context_id,omitempty"`
	CategoryID   string            `json:"category_id,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	DocumentDate *time.Time        `json:"document_date,omitempty"`
	Confidence   float64           `json:"confidence,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

func (p *Prediction) SetAttribute(key, value string) {
	if p.Attributes == nil {
		p.Attributes = map[string]string{}
	}
	p.Attributes[key] = value
}

// Candidate is one selectable context or category offered to classifiers.
type Candidate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Candidates is the snapshot of available contexts and categories supplied
// by the caller for one classification run.
type Candidates struct {
	Contexts   []Candidate `json:"contexts"`
	Categories []Candidate `json:"categories"`
}
