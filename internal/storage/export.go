package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/ctrlsim/internal/scenario"
)

// WriteCSV writes time,response and, when recorded, control,reference.
func WriteCSV(w io.Writer, out *scenario.Output) error {
	cw := csv.NewWriter(w)

	withControl := len(out.Control) == len(out.Time) && len(out.Reference) == len(out.Time) && len(out.Time) > 0
	header := []string{"time", "response"}
	if withControl {
		header = append(header, "control", "reference")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := range out.Time {
		row := []string{formatFloat(out.Time[i]), formatFloat(out.Response[i])}
		if withControl {
			row = append(row, formatFloat(out.Control[i]), formatFloat(out.Reference[i]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the series written by WriteCSV.
func ReadCSV(r io.Reader) (*scenario.Output, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty series")
	}

	header := records[0]
	if len(header) < 2 || header[0] != "time" || header[1] != "response" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	withControl := len(header) == 4

	rows := records[1:]
	out := &scenario.Output{
		Time:     make([]float64, 0, len(rows)),
		Response: make([]float64, 0, len(rows)),
	}
	if withControl {
		out.Control = make([]float64, 0, len(rows))
		out.Reference = make([]float64, 0, len(rows))
	}

	for i, record := range rows {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			vals[j] = v
		}
		out.Time = append(out.Time, vals[0])
		out.Response = append(out.Response, vals[1])
		if withControl {
			out.Control = append(out.Control, vals[2])
			out.Reference = append(out.Reference, vals[3])
		}
	}
	return out, nil
}

func ExportJSON(w io.Writer, out *scenario.Output) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
