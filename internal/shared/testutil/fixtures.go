package testutil

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PetsCSV is the three-row table used throughout the tests.
const PetsCSV = "Month,Cats,Dogs\n2020-01,10,5\n2020-02,20,15\n2020-03,15,25\n"

// NoMonthCSV lacks the Month header.
const NoMonthCSV = "Date,Cats,Dogs\n2020-01,10,5\n2020-02,20,15\n"

// BadMonthCSV has one unparseable Month value.
const BadMonthCSV = "Month,Cats\n2020-01,10\nJanuary,20\n2020-03,15\n"

// MonthlyCSV generates n consecutive months starting at 2019-01 for the
// given topics. Each topic follows a linear trend plus a yearly wave, so the
// output is deterministic.
func MonthlyCSV(n int, topics ...string) string {
	var b strings.Builder
	b.WriteString("Month")
	for _, topic := range topics {
		b.WriteString("," + topic)
	}
	b.WriteString("\n")

	start := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		b.WriteString(start.AddDate(0, i, 0).Format("2006-01"))
		for j := range topics {
			v := MonthlyValue(i, j)
			b.WriteString(fmt.Sprintf(",%.2f", v))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// MonthlyValue is the value MonthlyCSV writes for row i of topic j.
func MonthlyValue(i, j int) float64 {
	base := 40 + 10*float64(j)
	slope := 0.5 * float64(j+1)
	wave := 8 * math.Sin(2*math.Pi*float64(i%12)/12)
	return math.Round((base+slope*float64(i)+wave)*100) / 100
}
