package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/bizmerge/pkg/linkage"
	"github.com/agentstation/bizmerge/pkg/output"
)

// writeSQLite stores records in a single table with one TEXT column per
// output column and indexes on the domain columns.
func writeSQLite(ctx context.Context, path string, records []output.Record, o *options) (err error) {
	// the temp file is empty; let the driver create a fresh database
	_ = os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()

	table := fmt.Sprintf("%q", o.table)
	var defs, cols []string
	for _, c := range output.Columns {
		defs = append(defs, fmt.Sprintf("%q TEXT", c))
		cols = append(cols, fmt.Sprintf("%q", c))
	}
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE `+table+` (`+strings.Join(defs, ",")+`)`); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (`+strings.Join(cols, ",")+`) VALUES (`+ph+`)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, cells(r)...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, c := range []string{linkage.ColumnRootDomain, linkage.ColumnDomain, linkage.ColumnDomainGoogleUnique} {
		idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "idx_%s_%s" ON %s(%q)`, o.table, c, table, c)
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
