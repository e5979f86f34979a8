package dataflow

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func rentalsContract(t *testing.T) *Contract {
	t.Helper()
	return testContract(t, Contract{
		Client:       "Imobiliária Teste",
		Currency:     "BRL",
		MinIntegrity: 80,
		Required:     []string{"Cidade", "Valor do Aluguel", "Area", "Data do Anúncio"},
		Types: map[string]Kind{
			"Cidade":           Text,
			"Valor do Aluguel": Float,
			"Area":             Float,
			"Data do Anúncio":  Date,
		},
		Essential: []string{"Cidade", "Valor do Aluguel"},
		Derive: Derivations{
			PerUnit: &RatioSpec{Target: "Preco_m2", Value: "Valor do Aluguel", By: "Area"},
		},
	})
}

func TestProcess(t *testing.T) {
	pipe := New(rentalsContract(t), testStore(t))

	csv := "Cidade,Valor do Aluguel,Area,Data do Anúncio\n" +
		"São Paulo,1500,50,2025-03-02\n" +
		"Campinas,2000,80,03/03/2025\n" +
		"Santos,1200,40,2025-03-04\n"

	ok, message, report := pipe.Process(Upload{Name: "imoveis.csv", Data: []byte(csv)})
	if !ok {
		t.Fatalf("rejected: %s", message)
	}
	if !strings.Contains(message, "processed 3 rows") {
		t.Errorf("message = %q", message)
	}
	if !strings.Contains(message, "100.00%") {
		t.Errorf("message %q should carry the integrity percentage", message)
	}
	if report == nil || report.TotalRows != 3 {
		t.Fatalf("report = %+v", report)
	}

	// The artifact is loadable and carries the derived columns.
	table, rec, err := pipe.Store().LoadLatest()
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != StatusReady {
		t.Errorf("status = %q", rec.Status)
	}
	for _, name := range []string{"Preco_m2", "Data do Anúncio_dia_sem", "Data do Anúncio_trimestre"} {
		if !table.HasColumn(name) {
			t.Errorf("artifact missing derived column %s (has %v)", name, table.Names())
		}
	}
	if got := table.Column("Data do Anúncio_dia_sem").Value(0).Text(); got != "Domingo" {
		t.Errorf("weekday = %q, want Domingo", got)
	}
	if got := table.Column("Cidade").Value(0).Text(); got != "São Paulo" {
		t.Errorf("city = %q", got)
	}
}

func TestProcessRejectsMissingColumns(t *testing.T) {
	store := testStore(t)
	pipe := New(rentalsContract(t), store)

	csv := "Cidade,Area\nSão Paulo,50\n"
	ok, message, _ := pipe.Process(Upload{Name: "imoveis.csv", Data: []byte(csv)})
	if ok {
		t.Fatal("upload without required columns accepted")
	}
	if !strings.Contains(message, "Data do Anúncio") || !strings.Contains(message, "Valor do Aluguel") {
		t.Errorf("message %q should name every missing column", message)
	}

	// The rejection leaves a record but no artifact.
	records, err := store.History(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Status != StatusRejected {
		t.Fatalf("records = %+v", records)
	}
	if _, _, err := store.LoadLatest(); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestProcessRejectsLowIntegrity(t *testing.T) {
	pipe := New(rentalsContract(t), testStore(t))

	// 1 of 4 rows complete: 25% against an 80% minimum.
	csv := "Cidade,Valor do Aluguel,Area,Data do Anúncio\n" +
		"São Paulo,1500,50,2025-03-02\n" +
		"Campinas,,80,2025-03-03\n" +
		",1200,40,2025-03-04\n" +
		"Santos,1100,,2025-03-05\n"

	ok, message, report := pipe.Process(Upload{Name: "imoveis.csv", Data: []byte(csv)})
	if ok {
		t.Fatal("low-integrity upload accepted")
	}
	if !strings.Contains(message, "25.00%") {
		t.Errorf("message %q should carry the integrity percentage", message)
	}
	if report == nil || report.ValidRows != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestProcessBoundaryIntegrity(t *testing.T) {
	// 4 of 5 rows complete is exactly the 80% minimum and passes.
	pipe := New(rentalsContract(t), testStore(t))

	csv := "Cidade,Valor do Aluguel,Area,Data do Anúncio\n" +
		"A,1000,50,2025-03-02\n" +
		"B,1100,55,2025-03-03\n" +
		"C,1200,60,2025-03-04\n" +
		"D,1300,65,2025-03-05\n" +
		"E,1400,,2025-03-06\n"

	ok, message, _ := pipe.Process(Upload{Name: "imoveis.csv", Data: []byte(csv)})
	if !ok {
		t.Fatalf("boundary upload rejected: %s", message)
	}
	if !strings.Contains(message, "80.00%") {
		t.Errorf("message = %q", message)
	}
}

func TestProcessWarnsAboutDroppedRows(t *testing.T) {
	pipe := New(rentalsContract(t), testStore(t))

	// The incomplete row passes the 80% gate (4/5) but its null essential
	// price drops it during coercion.
	csv := "Cidade,Valor do Aluguel,Area,Data do Anúncio\n" +
		"A,1000,50,2025-03-02\n" +
		"B,1100,55,2025-03-03\n" +
		"C,1200,60,2025-03-04\n" +
		"D,1300,65,2025-03-05\n" +
		"E,,70,2025-03-06\n"

	ok, message, _ := pipe.Process(Upload{Name: "imoveis.csv", Data: []byte(csv)})
	if !ok {
		t.Fatalf("rejected: %s", message)
	}
	if !strings.Contains(message, "processed 4 rows") {
		t.Errorf("message = %q, want 4 surviving rows", message)
	}
	if !strings.Contains(message, "1 incomplete rows dropped") {
		t.Errorf("message %q should warn about the dropped row", message)
	}
}

func TestProcessDuplicateHeader(t *testing.T) {
	// A repeated header in the upload must flow through the normal
	// outcome path, not the panic recovery.
	pipe := New(rentalsContract(t), testStore(t))

	csv := "Cidade,Valor do Aluguel,Area,Data do Anúncio,Area\n" +
		"São Paulo,1500,50,2025-03-02,51\n"

	ok, message, _ := pipe.Process(Upload{Name: "imoveis.csv", Data: []byte(csv)})
	if !ok {
		t.Fatalf("rejected: %s", message)
	}
	if strings.Contains(message, "internal pipeline failure") {
		t.Fatalf("message = %q", message)
	}

	table, _, err := pipe.Store().LoadLatest()
	if err != nil {
		t.Fatal(err)
	}
	if !table.HasColumn("Area.1") {
		t.Errorf("columns = %v, want the duplicate disambiguated", table.Names())
	}
}

func TestProcessUnknownFormat(t *testing.T) {
	store := testStore(t)
	pipe := New(rentalsContract(t), store)

	ok, message, report := pipe.Process(Upload{Name: "imoveis.pdf", Data: []byte("%PDF")})
	if ok {
		t.Fatal("unknown format accepted")
	}
	if !strings.Contains(message, ".pdf") {
		t.Errorf("message = %q", message)
	}
	if report != nil {
		t.Errorf("unreadable upload should carry no report, got %+v", report)
	}

	// Nothing reaches the store for a file that never parsed.
	records, err := store.History(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("records = %+v", records)
	}
}

func TestProcessStorageFailure(t *testing.T) {
	// Pointing the trusted dir at an existing file makes persistence
	// fail; the outcome degrades to a rejection message, not an error.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	pipe := New(rentalsContract(t), NewStore(blocked, filepath.Join(dir, "flags")))

	csv := "Cidade,Valor do Aluguel,Area,Data do Anúncio\nA,1000,50,2025-03-02\n"
	ok, message, _ := pipe.Process(Upload{Name: "imoveis.csv", Data: []byte(csv)})
	if ok {
		t.Fatal("persist into a blocked directory should not succeed")
	}
	if message == "" {
		t.Error("failure should carry a message")
	}
}

func TestCheckDoesNotPersist(t *testing.T) {
	store := testStore(t)
	pipe := New(rentalsContract(t), store)

	csv := "Cidade,Valor do Aluguel,Area,Data do Anúncio\nA,1000,50,2025-03-02\n"
	ok, message, report := pipe.Check(Upload{Name: "imoveis.csv", Data: []byte(csv)})
	if !ok {
		t.Fatalf("rejected: %s", message)
	}
	if report == nil || report.TotalRows != 1 {
		t.Errorf("report = %+v", report)
	}

	records, err := store.History(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Error("check must not write records")
	}
	if _, _, err := store.LoadLatest(); !errors.Is(err, ErrNoData) {
		t.Error("check must not write artifacts")
	}
}

func TestProcessPointOfSaleContract(t *testing.T) {
	// The strict-rows family: currency-styled numbers and an any-null
	// pre-filter before conversion.
	contract := testContract(t, Contract{
		Client:       "Pizzaria Teste",
		Currency:     "BRL",
		MinIntegrity: 70,
		NumberStyle:  Currency,
		StrictRows:   true,
		Required:     []string{"sabor", "valor", "data_pedido"},
		Types: map[string]Kind{
			"sabor":       Text,
			"valor":       Float,
			"data_pedido": Datetime,
		},
	})
	pipe := New(contract, testStore(t))

	csv := "sabor,valor,data_pedido\n" +
		"margherita,\"R$ 45,50\",2025-06-15 18:30:00\n" +
		"calabresa,\"R$ 39,00\",2025-06-15 19:00:00\n" +
		"quatro queijos,\"R$ 52,00\",2025-06-15 19:15:00\n" +
		"portuguesa,,2025-06-15 19:30:00\n"

	ok, message, _ := pipe.Process(Upload{Name: "pedidos.csv", Data: []byte(csv)})
	if !ok {
		t.Fatalf("rejected: %s", message)
	}
	if !strings.Contains(message, "processed 3 rows") {
		t.Errorf("message = %q, want the incomplete order dropped", message)
	}

	table, _, err := pipe.Store().LoadLatest()
	if err != nil {
		t.Fatal(err)
	}
	if got := table.Column("valor").Value(0).String(); got != "45.5" {
		t.Errorf("normalized price = %q, want 45.5", got)
	}
	if got := table.Column("sabor").Value(0).Text(); got != "Margherita" {
		t.Errorf("flavor = %q, want title case", got)
	}
	if got := table.Column("data_pedido_hora").Value(0).Int(); got != 18 {
		t.Errorf("hour = %d, want 18", got)
	}
}
