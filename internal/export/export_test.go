package export

import (
	"strings"
	"testing"
	"time"

	"incidencias-cli/internal/model"
)

func TestCSVShape(t *testing.T) {
	created, _ := model.ParseDay("2026-08-15")
	out := CSV([]model.Incident{
		{
			ID: "inc-1", Title: `Fuga "grave" en cubierta`, Description: "Gotea, revisar pronto",
			Status: model.StatusOpen, Priority: model.PriorityHigh,
			BuildingID: "edi-1", CreatedAt: created, DueDate: "2026-09-05",
			IsClaim: true, ClaimRef: "SIN-774",
		},
		{ID: "inc-2", Title: "Pintura portal", Status: model.StatusClosed, Priority: model.PriorityLow},
	})

	if !strings.HasPrefix(out, "\ufeff") {
		t.Fatalf("export must start with a UTF-8 BOM")
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != `"id","titulo","descripcion","estado","prioridad","edificioId","reparadorId","fechaCreacion","fechaLimite","esSiniestro","referenciaSiniestro"` {
		t.Fatalf("header: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"Fuga ""grave"" en cubierta"`) {
		t.Fatalf("embedded quotes must be doubled: %s", lines[1])
	}
	if !strings.Contains(lines[1], `"Sí"`) || !strings.Contains(lines[1], `"2026-08-15"`) {
		t.Fatalf("claim flag or creation day wrong: %s", lines[1])
	}
	if !strings.Contains(lines[2], `"No"`) {
		t.Fatalf("non-claims export as No: %s", lines[2])
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, `"`) {
			t.Fatalf("every cell must be quoted: %s", line)
		}
	}
}

func TestCSVFilename(t *testing.T) {
	now := time.Date(2026, 9, 1, 13, 5, 9, 0, time.Local)
	if got := CSVFilename(now); got != "incidencias-20260901-130509.csv" {
		t.Fatalf("filename: %s", got)
	}
}

func TestListSheetTable(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	md := ListSheet([]model.Incident{
		{ID: "inc-1", Title: "Ascensor | parado", Status: model.StatusOpen, Priority: model.PriorityHigh, BuildingID: "edi-1"},
	}, func(id string) string { return "Gran Vía 10" }, now)

	if !strings.Contains(md, "Total 1 · Abiertas 1") {
		t.Fatalf("summary line missing:\n%s", md)
	}
	if !strings.Contains(md, `Ascensor \| parado`) {
		t.Fatalf("pipe in a title must be escaped:\n%s", md)
	}
	if !strings.Contains(md, "Gran Vía 10") {
		t.Fatalf("building name missing:\n%s", md)
	}
}

func TestDetailSheetSections(t *testing.T) {
	closed := time.Date(2026, 8, 30, 18, 0, 0, 0, time.Local)
	in := model.Incident{
		ID: "inc-1", Title: "Rotura de tubería", Status: model.StatusClosed,
		Priority: model.PriorityCritical, BuildingID: "edi-1", ContractorID: "rep-1",
		IsClaim: true, ClaimRef: "SIN-774", ClosedAt: &closed,
		Description: "Tubería general rota en el sótano",
		Files:       []model.FileRef{{Name: "parte.pdf"}},
	}
	comms := []model.Communication{{Author: "Ana", Type: "llamada", Message: "Avisado el fontanero", CreatedAt: closed}}

	md := DetailSheet(in, comms, func(string) string { return "Gran Vía 10" }, func(string) string { return "Fontanería Ruiz" })
	for _, want := range []string{
		"# Rotura de tubería", "Siniestro: Sí (ref SIN-774)", "Cerrada: 30/08/2026",
		"Fontanería Ruiz", "## Archivos", "parte.pdf", "## Comunicaciones", "Avisado el fontanero",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("missing %q in sheet:\n%s", want, md)
		}
	}
}
