// Package export turns the visible incident set into files people hand to
// administrators: a spreadsheet-friendly CSV and printable sheets.
package export

import (
	"fmt"
	"strings"
	"time"

	"incidencias-cli/internal/model"
)

// csvBOM keeps Excel from misreading the accented headers as Latin-1.
const csvBOM = "\ufeff"

var csvHeader = []string{
	"id", "titulo", "descripcion", "estado", "prioridad",
	"edificioId", "reparadorId", "fechaCreacion", "fechaLimite",
	"esSiniestro", "referenciaSiniestro",
}

// CSV renders the incidents as a UTF-8 CSV with a BOM. Every cell is
// quoted, including the header, so downstream tooling never has to guess.
// encoding/csv only quotes when it must, which breaks that expectation.
func CSV(ins []model.Incident) string {
	var b strings.Builder
	b.WriteString(csvBOM)
	writeRow(&b, csvHeader)
	for _, in := range ins {
		created := ""
		if !in.CreatedAt.IsZero() {
			created = model.DayKey(in.CreatedAt)
		}
		claim := "No"
		if in.IsClaim {
			claim = "Sí"
		}
		writeRow(&b, []string{
			in.ID, in.Title, in.Description,
			string(in.Status), string(in.Priority),
			in.BuildingID, in.ContractorID,
			created, in.DueDate,
			claim, in.ClaimRef,
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(c, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

// CSVFilename names an export after the moment it was taken.
func CSVFilename(now time.Time) string {
	return fmt.Sprintf("incidencias-%s.csv", now.Format("20060102-150405"))
}
