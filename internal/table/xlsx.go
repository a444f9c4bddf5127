package table

import (
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// readXLSX returns the header row and data rows of one worksheet. Cells are
// read raw so that dates come back as Excel serial numbers rather than in
// whatever display format the workbook happens to use.
func readXLSX(path, sheet string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	found := false
	for _, name := range f.GetSheetList() {
		if name == sheet {
			found = true
			break
		}
	}
	if !found {
		return nil, nil, errors.Wrapf(ErrMissingSheet, "%q", sheet)
	}

	all, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read sheet %q", sheet)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}

	// GetRows drops trailing empty rows but keeps blank ones in the middle;
	// those are skipped the same way a dataframe reader would.
	rows := make([][]string, 0, len(all)-1)
	for _, r := range all[1:] {
		if isBlank(r) {
			continue
		}
		rows = append(rows, r)
	}
	return all[0], rows, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
