// Package types contains the wire shapes shared by the HTTP API and its clients.
package types

import (
	"github.com/okian/scores/internal/domain/csvparse"
	"github.com/okian/scores/internal/domain/model"
)

// Score is the JSON view of a stored score.
type Score struct {
	ID         string `json:"id,omitempty"`
	FirstName  string `json:"firstName"`
	SecondName string `json:"secondName"`
	ScoreValue int    `json:"scoreValue"`
}

// FromModel converts a stored score to its wire form.
func FromModel(s model.Score) Score {
	return Score{ID: s.ID, FirstName: s.FirstName, SecondName: s.SecondName, ScoreValue: s.Value}
}

// FromModels converts a slice, never returning nil so JSON renders [].
func FromModels(in []model.Score) []Score {
	out := make([]Score, len(in))
	for i, s := range in {
		out[i] = FromModel(s)
	}
	return out
}

// ToModel converts a request body into a domain score without an ID.
func (s Score) ToModel() model.Score {
	return model.Score{FirstName: s.FirstName, SecondName: s.SecondName, Value: s.ScoreValue}
}

// ImportJob is the JSON view of an asynchronous import.
type ImportJob struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Imported  int    `json:"imported"`
	Error     string `json:"error,omitempty"`
}

// Issue is the JSON view of a parse failure or warning.
type Issue struct {
	Kind    string `json:"kind,omitempty"`
	Line    int    `json:"line"`
	Raw     string `json:"raw"`
	Message string `json:"message"`
}

// Preview is the JSON view of a collect-all validation pass.
type Preview struct {
	Valid    bool    `json:"valid"`
	Records  []Score `json:"records"`
	Warnings []Issue `json:"warnings"`
	Errors   []Issue `json:"errors"`
}

// FromReport converts a validation report to its wire form.
func FromReport(rep csvparse.Report) Preview {
	p := Preview{
		Valid:    len(rep.Errors) == 0,
		Records:  make([]Score, len(rep.Records)),
		Warnings: make([]Issue, len(rep.Warnings)),
		Errors:   make([]Issue, len(rep.Errors)),
	}
	for i, r := range rep.Records {
		p.Records[i] = Score{FirstName: r.FirstName, SecondName: r.SecondName, ScoreValue: r.Score}
	}
	for i, w := range rep.Warnings {
		p.Warnings[i] = Issue{Line: w.Line, Raw: w.Raw, Message: w.Message}
	}
	for i, e := range rep.Errors {
		p.Errors[i] = Issue{Kind: e.Kind.String(), Line: e.Line, Raw: e.Raw, Message: e.Message}
	}
	return p
}
