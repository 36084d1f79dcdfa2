package sink

import (
	"context"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/output"
)

// writeXLSX writes a single sheet: the header row followed by one row per
// record, with no index column.
func writeXLSX(ctx context.Context, path string, records []output.Record, o *options) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	sheet := o.sheet
	if sheet != constants.DefaultSheetName {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := f.DeleteSheet(constants.DefaultSheetName); err != nil {
			return err
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", header()); err != nil {
		return err
	}
	for i, r := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(r)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, constants.FilePermissions) //nolint:gosec // temp file we created
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
