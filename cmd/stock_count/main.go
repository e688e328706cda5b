// stock_count aplica un conteo físico de inventario: por cada línea del CSV registra un
// ajuste (ADJUSTMENT) que lleva el stock del producto a la cantidad contada.
//
// Uso: go run ./cmd/stock_count -file conteo.csv -actor <uuid> [-latin1] [-dry-run]
// Formato: codigo;cantidad;motivo (motivo opcional).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/jhoicas/Clinica-api/internal/application/inventory"
	"github.com/jhoicas/Clinica-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Clinica-api/pkg/config"
	"github.com/jhoicas/Clinica-api/pkg/logger"
)

// errRowsFailed alguna línea no se pudo aplicar (el resumen ya se imprimió).
var errRowsFailed = errors.New("hay líneas con error")

func main() {
	file := flag.String("file", "conteo.csv", "archivo CSV del conteo")
	actorID := flag.String("actor", "", "UUID del usuario que realizó el conteo")
	latin1 := flag.Bool("latin1", false, "el archivo viene en ISO-8859-1")
	dryRun := flag.Bool("dry-run", false, "solo mostrar cuántos productos se ajustarían")
	flag.Parse()

	if *actorID == "" {
		fmt.Fprintln(os.Stderr, "-actor es obligatorio")
		os.Exit(2)
	}

	if err := run(*file, *actorID, *latin1, *dryRun); err != nil {
		if !errors.Is(err, errRowsFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// run abre archivo y pool; sus defer se ejecutan antes de que main termine el proceso.
func run(file, actorID string, latin1, dryRun bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("abrir CSV: %w", err)
	}
	defer f.Close()

	rows, err := parseCount(f, latin1)
	if err != nil {
		return fmt.Errorf("leer conteo: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conectar a PostgreSQL: %w", err)
	}
	defer pool.Close()

	products := postgres.NewProductRepository(pool)
	uc := inventory.NewRecordMovementUseCase(
		postgres.NewTxRunner(pool),
		products,
		postgres.NewActorRepository(pool),
		postgres.NewSupplierRepository(pool),
		postgres.NewAuditRepository(pool),
		log,
		inventory.LedgerOptions{CommitTimeout: cfg.Ledger.CommitTimeout, AuditTimeout: cfg.Ledger.AuditTimeout},
	)

	s, err := applyCounts(ctx, products, uc, actorID, rows, dryRun)
	if err != nil {
		return fmt.Errorf("aplicar conteo: %w", err)
	}

	fmt.Printf("Líneas: %d | ajustados: %d | sin cambio: %d | con error: %d\n",
		len(rows), s.Adjusted, s.Unchanged, len(s.Failed))
	for _, msg := range s.Failed {
		fmt.Println("  " + msg)
	}
	if len(s.Failed) > 0 {
		return errRowsFailed
	}
	return nil
}
