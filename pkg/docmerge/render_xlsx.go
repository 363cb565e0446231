package docmerge

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// renderGrid merges a record into a cell-grid workbook template. An
// unparseable workbook is a *TemplateStructureError; any failure after the
// workbook opens comes back as a *RenderError for the dispatcher's fallback
// arm.
func (e *Engine) renderGrid(templateBytes []byte, rec *Record, meta FieldMeta, templateName string) (out []byte, err error) {
	wb, oerr := excelize.OpenReader(bytes.NewReader(templateBytes))
	if oerr != nil {
		return nil, &TemplateStructureError{Kind: KindGrid, Cause: oerr}
	}
	defer wb.Close()

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, newRenderError(templateName, rec.ID, RecoverError(r))
		}
	}()

	ctx := e.formatter.Enhance(rec, meta, e.clock())
	substituted := 0

	for _, sheet := range wb.GetSheetList() {
		rows, rerr := wb.GetRows(sheet)
		if rerr != nil {
			return nil, newRenderError(templateName, rec.ID, rerr)
		}

		for ri, row := range rows {
			for ci, cell := range row {
				if !strings.Contains(cell, "{") || !strings.Contains(cell, "}") {
					continue
				}

				axis, aerr := excelize.CoordinatesToCellName(ci+1, ri+1)
				if aerr != nil {
					return nil, newRenderError(templateName, rec.ID, aerr)
				}

				// Formula cells keep their formula; only plain text cells are
				// rewritten.
				if formula, _ := wb.GetCellFormula(sheet, axis); formula != "" {
					continue
				}

				if name, ok := wholePlaceholder(cell); ok {
					resolved := e.formatter.ResolveValue(name, ctx)
					substituted++
					if n, isNum := resolved.(float64); isNum {
						if serr := wb.SetCellFloat(sheet, axis, n, -1, 64); serr != nil {
							return nil, newRenderError(templateName, rec.ID, serr)
						}
						continue
					}
					if serr := wb.SetCellStr(sheet, axis, toDisplay(resolved)); serr != nil {
						return nil, newRenderError(templateName, rec.ID, serr)
					}
					continue
				}

				merged := ReplacePlaceholders(cell, func(name string) string {
					substituted++
					return e.formatter.Resolve(name, ctx)
				})
				if merged != cell {
					if serr := wb.SetCellStr(sheet, axis, merged); serr != nil {
						return nil, newRenderError(templateName, rec.ID, serr)
					}
				}
			}
		}
	}

	buf, werr := wb.WriteToBuffer()
	if werr != nil {
		return nil, newRenderError(templateName, rec.ID, werr)
	}

	Logger().Debug("grid template rendered",
		zap.String("template", templateName),
		zap.String("record", rec.ID),
		zap.Int("placeholders", substituted))

	return buf.Bytes(), nil
}

// wholePlaceholder reports whether the cell text is exactly one {name} token,
// no surrounding characters. Only whole-cell placeholders may carry a native
// number through to the cell; padded cells stay on the text path.
func wholePlaceholder(cell string) (string, bool) {
	if len(cell) < 2 || cell[0] != '{' || cell[len(cell)-1] != '}' {
		return "", false
	}
	inner := cell[1 : len(cell)-1]
	if strings.ContainsAny(inner, "{}") {
		return "", false
	}
	return inner, true
}
