package table

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// readCSV reads a delimited file. Comma is tried first; a header that comes
// back as a single field containing semicolons is re-read with ';'.
func readCSV(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open csv")
	}
	defer file.Close()

	reader := newCSVReader(file, ',')
	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "read headers")
	}

	if len(headers) == 1 && strings.Contains(headers[0], ";") {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, nil, errors.Wrap(err, "rewind csv")
		}
		reader = newCSVReader(file, ';')
		if headers, err = reader.Read(); err != nil {
			return nil, nil, errors.Wrap(err, "read headers")
		}
	}

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "read row")
		}
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}
	return headers, rows, nil
}

func newCSVReader(r io.Reader, comma rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // ragged rows are padded later
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader
}
