package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"reflect"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/writer"
)

// Format is an output file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatParquet:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be csv or parquet", s)
	}
}

const initialCapacity = 1024 * 1024

// Encode renders rows in the given format.
func Encode(rows []Row, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return encodeCSV(rows)
	case FormatParquet:
		return encodeParquet(rows)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func encodeCSV(rows []Row) ([]byte, error) {
	buf := buffer.NewBufferFileCapacity(initialCapacity)
	w := csv.NewWriter(buf)

	if err := w.Write(Columns()); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range rows {
		v := reflect.ValueOf(row)
		record := make([]string, v.NumField())
		for i := range record {
			record[i] = fmt.Sprint(v.Field(i).Interface())
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv row %d: %w", row.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeParquet(rows []Row) ([]byte, error) {
	buf := buffer.NewBufferFileCapacity(initialCapacity)
	pw, err := writer.NewParquetWriter(buf, new(Row), 4)
	if err != nil {
		return nil, fmt.Errorf("creating parquet writer: %w", err)
	}

	for i := range rows {
		if err := pw.Write(&rows[i]); err != nil {
			return nil, fmt.Errorf("writing parquet row %d: %w", rows[i].ID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finishing parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// Write encodes rows and copies them to w.
func Write(w io.Writer, rows []Row, format Format) (int, error) {
	data, err := Encode(rows, format)
	if err != nil {
		return 0, err
	}
	return w.Write(data)
}
