package table

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Supported database/sql drivers for sql sources.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// sqlTimeLayout is how database timestamps are stored in a Dataset.
const sqlTimeLayout = "2006-01-02 15:04:05"

// readSQL reads a whole table. The table name comes from configuration, but
// it is still quoted as an identifier rather than pasted into the query.
func readSQL(ctx context.Context, src Source) ([]string, [][]string, error) {
	switch src.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, nil, errors.Errorf("unsupported sql driver %q", src.Driver)
	}
	if src.Table == "" {
		return nil, nil, errors.New("sql source needs a table")
	}

	db, err := sql.Open(src.Driver, src.DSN)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open database")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "ping database")
	}

	query := fmt.Sprintf("SELECT * FROM %s", quoteTable(src.Table))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, errors.Wrap(err, "query table")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, errors.Wrap(err, "read columns")
	}

	var out [][]string
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, errors.Wrap(err, "scan row")
		}

		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = formatSQLValue(v)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "iterate rows")
	}
	return columns, out, nil
}

// quoteTable quotes each part of a possibly schema-qualified table name.
// Double-quoted identifiers work for both postgres and sqlite.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func formatSQLValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return t.Format(sqlTimeLayout)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
