// Package report строит выгрузки сохранённых запусков решателя
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"netsimplex/pkg/apperror"
	"netsimplex/services/solver-svc/internal/converter"
	"netsimplex/services/solver-svc/internal/repository"
)

// Имена листов книги
const (
	SheetSummary  = "Summary"
	SheetEdges    = "Edges"
	SheetVertices = "Vertices"
)

// Data входные данные отчёта. Run может быть nil для задачи, не сохранённой
// в хранилище.
type Data struct {
	Run     *repository.Run
	Problem *converter.Problem
	Result  *converter.Result
}

// Generate строит xlsx книгу с листами Summary, Edges и Vertices
func Generate(data *Data) ([]byte, error) {
	if data == nil || data.Problem == nil || data.Result == nil {
		return nil, apperror.New(apperror.CodeNilInput, "report needs a problem and a result")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, err
	}
	// Дефолтный лист удаляем после создания первого своего
	f.DeleteSheet("Sheet1")

	writeSummary(f, data, headerStyle)

	if _, err := f.NewSheet(SheetEdges); err != nil {
		return nil, err
	}
	writeEdges(f, data, headerStyle)

	if _, err := f.NewSheet(SheetVertices); err != nil {
		return nil, err
	}
	writeVertices(f, data, headerStyle)

	if idx, err := f.GetSheetIndex(SheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, data *Data, headerStyle int) {
	sheet := SheetSummary
	res := data.Result
	row := 1

	f.SetCellValue(sheet, cellAddr("A", row), "Min-Cost Flow Report")
	f.MergeCell(sheet, cellAddr("A", row), cellAddr("B", row))
	row += 2

	if run := data.Run; run != nil {
		f.SetCellValue(sheet, cellAddr("A", row), "Run")
		f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		row = writePairs(f, sheet, row, [][2]any{
			{"ID", run.ID},
			{"Problem Hash", run.ProblemHash},
			{"Created At", run.CreatedAt.UTC().Format(time.RFC3339)},
			{"Duration (ms)", run.DurationMs},
			{"Cache Hit", run.CacheHit},
		})
		row++
	}

	f.SetCellValue(sheet, cellAddr("A", row), "Problem")
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++

	row = writePairs(f, sheet, row, [][2]any{
		{"Vertices", data.Problem.VertexCount()},
		{"Edges", len(data.Problem.Edges)},
	})
	row++

	f.SetCellValue(sheet, cellAddr("A", row), "Result")
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++

	pairs := [][2]any{
		{"Status", string(res.Status)},
		{"Rule", string(res.Stats.Rule)},
		{"Pivots", res.Stats.Pivots},
		{"Degenerate Pivots", res.Stats.DegeneratePivots},
		{"Rounds", res.Stats.Rounds},
	}
	if res.Optimal() {
		pairs = append(pairs, [2]any{"Total Cost", res.TotalCost})
	}
	writePairs(f, sheet, row, pairs)

	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "B", 40)
}

func writePairs(f *excelize.File, sheet string, row int, pairs [][2]any) int {
	for _, p := range pairs {
		f.SetCellValue(sheet, cellAddr("A", row), p[0])
		f.SetCellValue(sheet, cellAddr("B", row), p[1])
		row++
	}
	return row
}

func writeEdges(f *excelize.File, data *Data, headerStyle int) {
	sheet := SheetEdges
	res := data.Result

	headers := []string{"#", "From", "To", "Lower", "Upper", "Cost", "Flow", "Reduced Cost"}
	cols := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(cols[i], 1), h)
	}
	f.SetCellStyle(sheet, cellAddr("A", 1), cellAddr("H", 1), headerStyle)

	hasFlow := res.Optimal() && len(res.Flows) == len(data.Problem.Edges)
	hasPotentials := res.Optimal() && len(res.Potentials) >= data.Problem.VertexCount()

	for i, e := range data.Problem.Edges {
		row := i + 2
		f.SetCellValue(sheet, cellAddr("A", row), i)
		f.SetCellValue(sheet, cellAddr("B", row), e.From)
		f.SetCellValue(sheet, cellAddr("C", row), e.To)
		f.SetCellValue(sheet, cellAddr("D", row), e.Lower)
		f.SetCellValue(sheet, cellAddr("E", row), e.Upper)
		f.SetCellValue(sheet, cellAddr("F", row), e.Cost)
		if hasFlow {
			f.SetCellValue(sheet, cellAddr("G", row), res.Flows[i])
		}
		if hasPotentials {
			f.SetCellValue(sheet, cellAddr("H", row), e.Cost+res.Potentials[e.From]-res.Potentials[e.To])
		}
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeVertices(f *excelize.File, data *Data, headerStyle int) {
	sheet := SheetVertices
	res := data.Result
	n := data.Problem.VertexCount()

	f.SetCellValue(sheet, cellAddr("A", 1), "Vertex")
	f.SetCellValue(sheet, cellAddr("B", 1), "Balance")
	f.SetCellValue(sheet, cellAddr("C", 1), "Potential")
	f.SetCellStyle(sheet, cellAddr("A", 1), cellAddr("C", 1), headerStyle)

	hasPotentials := res.Optimal() && len(res.Potentials) >= n

	for u := 0; u < n; u++ {
		row := u + 2
		var b int64
		if u < len(data.Problem.Balances) {
			b = data.Problem.Balances[u]
		}
		f.SetCellValue(sheet, cellAddr("A", row), u)
		f.SetCellValue(sheet, cellAddr("B", row), b)
		if hasPotentials {
			f.SetCellValue(sheet, cellAddr("C", row), res.Potentials[u])
		}
	}
}

func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
