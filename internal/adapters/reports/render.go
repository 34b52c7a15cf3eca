package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Format is a report file format.
type Format string

// Supported report formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type stored with the blob.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat validates a format name; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// table is a rendered report before encoding. Cells hold int64, string, or
// decimal values.
type table struct {
	Sheet   string
	Columns []string
	Rows    [][]any
}

func render(t table, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(t)
	case FormatJSON:
		return renderJSON(t)
	case FormatXLSX:
		return renderXLSX(t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderCSV(t table) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderJSON(t table) ([]byte, error) {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		obj := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			obj[col] = row[i]
		}
		out = append(out, obj)
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return payload, nil
}

func renderXLSX(t table) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if t.Sheet != "" {
		if err := f.SetSheetName(sheet, t.Sheet); err != nil {
			return nil, err
		}
		sheet = t.Sheet
	}
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			// excelize writes numbers as float cells
			if d, ok := cell.(decimal.Decimal); ok {
				cells[j] = d.InexactFloat64()
				continue
			}
			cells[j] = cell
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
	}
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
