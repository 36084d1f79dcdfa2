package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/output"
)

func writeCSV(_ context.Context, path string, records []output.Record, _ *options) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, constants.FilePermissions) //nolint:gosec // temp file we created
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(output.Columns); err != nil {
		_ = f.Close()
		return err
	}
	for _, r := range records {
		if err := w.Write(r.Strings()); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(_ context.Context, path string, records []output.Record, _ *options) error {
	if records == nil {
		records = []output.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), constants.FilePermissions)
}

func writeYAML(_ context.Context, path string, records []output.Record, _ *options) error {
	if records == nil {
		records = []output.Record{}
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, constants.FilePermissions)
}
