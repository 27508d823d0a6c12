package loadgen

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/scores/internal/domain/csvparse"
	"github.com/okian/scores/internal/domain/model"
)

// Score bands, picked uniformly, so sheets carry a mix of typical and rare values.
var bands = [...]struct{ min, max int }{
	{30, 70},  // average
	{70, 90},  // high
	{0, 30},   // low
	{90, 100}, // elite
	{0, 10},   // very low
	{60, 80},  // mid-high
	{20, 40},  // mid-low
	{0, 100},  // anything
}

var firstNames = [...]string{
	"Dee", "Sipho", "Amy", "Zoë", "Liam", "Noor", "Kofi", "Mei", "Ana", "Ravi",
	"Smith, John", `Jo "JJ"`,
}

// Sheet is one generated score sheet and the scores it encodes.
type Sheet struct {
	Name    string
	Content string
	Scores  []model.Score
}

type generator struct {
	rng *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *generator) score() int {
	b := bands[g.rng.IntN(len(bands))]
	return b.min + g.rng.IntN(b.max-b.min+1)
}

// sheet builds one sheet. Second names are unique so every row is a new person.
func (g *generator) sheet(index, rows int) Sheet {
	var sb strings.Builder
	sb.WriteString(strings.Join(csvparse.Header[:], ","))
	sb.WriteString("\r\n")

	scores := make([]model.Score, 0, rows)
	for i := range rows {
		sc := model.Score{
			FirstName:  firstNames[g.rng.IntN(len(firstNames))],
			SecondName: "L" + uuid.NewString()[:8],
			Value:      g.score(),
		}
		scores = append(scores, sc)

		sb.WriteString(quote(sc.FirstName))
		sb.WriteByte(',')
		sb.WriteString(sc.SecondName)
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(sc.Value))
		// A blank line now and then exercises the skip path.
		if i%50 == 49 {
			sb.WriteString("\r\n")
		}
		sb.WriteString("\r\n")
	}

	return Sheet{
		Name:    fmt.Sprintf("loadgen-%04d.csv", index),
		Content: sb.String(),
		Scores:  scores,
	}
}

func generateSheets(cfg *Config) []Sheet {
	g := newGenerator(cfg.Seed)
	sheets := make([]Sheet, cfg.Sheets)
	for i := range sheets {
		sheets[i] = g.sheet(i, cfg.RowsPerSheet)
	}
	return sheets
}

func quote(field string) string {
	if !strings.ContainsAny(field, `,"`) {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
