package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Clinica-api/internal/application/dto"
	"github.com/jhoicas/Clinica-api/internal/application/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

// countRow una línea del conteo físico: código;cantidad contada;motivo.
type countRow struct {
	Line    int
	Code    string
	Counted decimal.Decimal
	Reason  string
}

// summary resultado de aplicar el conteo.
type summary struct {
	Adjusted  int
	Unchanged int
	Failed    []string
}

// parseCount lee el CSV separado por ';'. Con latin1 el archivo se decodifica desde ISO-8859-1
// (exportaciones de hojas de cálculo en Windows). Se ignoran líneas vacías, comentarios (#) y
// un encabezado cuya segunda columna no sea numérica.
func parseCount(r io.Reader, latin1 bool) ([]countRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []countRow
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		header := first
		first = false
		if len(rec) < 2 {
			return nil, fmt.Errorf("línea %d: se esperan al menos código;cantidad", line)
		}
		code := strings.TrimSpace(rec[0])
		qty, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[1]), ",", "."))
		if err != nil {
			if header {
				continue
			}
			return nil, fmt.Errorf("línea %d: cantidad inválida %q", line, rec[1])
		}
		if code == "" {
			return nil, fmt.Errorf("línea %d: código vacío", line)
		}
		reason := "conteo físico"
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			reason = strings.TrimSpace(rec[2])
		}
		rows = append(rows, countRow{Line: line, Code: code, Counted: qty, Reason: reason})
	}
	return rows, nil
}

// applyCounts registra un ADJUSTMENT por cada producto cuyo stock difiere del contado.
// Un fallo en una línea no detiene las demás.
func applyCounts(
	ctx context.Context,
	products repository.ProductRepository,
	uc *inventory.RecordMovementUseCase,
	actorID string,
	rows []countRow,
	dryRun bool,
) (summary, error) {
	var s summary
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		p, err := products.GetByCode(ctx, row.Code)
		if err != nil {
			return s, &domain.PersistenceError{Op: "buscar producto por código", Err: err}
		}
		if p == nil {
			s.Failed = append(s.Failed, fmt.Sprintf("línea %d: producto %s no existe", row.Line, row.Code))
			continue
		}
		if p.StockCurrent.Equal(row.Counted) {
			s.Unchanged++
			continue
		}
		if dryRun {
			s.Adjusted++
			continue
		}
		_, err = uc.RecordCorrection(ctx, actorID, dto.CorrectionRequest{
			ProductID:   p.ID,
			TargetStock: row.Counted,
			Reason:      row.Reason,
		})
		if err != nil {
			s.Failed = append(s.Failed, fmt.Sprintf("línea %d: %s: %v", row.Line, row.Code, err))
			continue
		}
		s.Adjusted++
	}
	return s, nil
}
