package cli

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ovenprofile/internal/config"
	"ovenprofile/internal/export"
	"ovenprofile/internal/query"
	"ovenprofile/internal/session"
	"ovenprofile/internal/table"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportOptions holds the flags of the export command.
type ExportOptions struct {
	Measurements []string
	Start        string
	End          string
	Format       string
	Output       string
	Separator    string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Query a date range and write it as csv or xlsx",
		Long: `Load the configured datasets, select the measurements, filter the rows
of their dataset to the inclusive date range and write the result.

Start and end default to the first and last date of the dataset. The
format defaults to the output file's extension, then to csv.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts.Config, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Measurements, "measurement", "m", nil, "measurement to select (repeatable)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.End, "end", "", "last date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "output format (csv|xlsx)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file")
	cmd.Flags().StringVar(&opts.Separator, "sep", string(export.DefaultSeparator), "csv field separator")
	_ = cmd.MarkFlagRequired("measurement")

	return cmd
}

func runExport(cmd *cobra.Command, cfg *config.Config, opts *ExportOptions) error {
	format, err := exportFormat(opts.Format, opts.Output)
	if err != nil {
		return err
	}
	sep, _ := utf8.DecodeRuneInString(opts.Separator)
	if utf8.RuneCountInString(opts.Separator) != 1 || !export.ValidSeparator(sep) {
		return errors.Wrapf(export.ErrInvalidSeparator, "%q", opts.Separator)
	}

	store, err := table.NewLoader(cfg.LoadTimeout).Load(cmd.Context(), cfg.Sources)
	if err != nil {
		return err
	}

	s := session.New("cli", store, time.Now())
	if err := s.Select(opts.Measurements); err != nil {
		return err
	}
	rng := s.Status().Range
	if opts.Start != "" {
		if rng.Start, err = query.ParseDate(opts.Start); err != nil {
			return errors.Wrap(err, "start")
		}
	}
	if opts.End != "" {
		if rng.End, err = query.ParseDate(opts.End); err != nil {
			return errors.Wrap(err, "end")
		}
	}
	if err := s.SetRange(rng.Start, rng.End); err != nil {
		return err
	}
	v, err := s.Resolve()
	if err != nil {
		return err
	}

	var data []byte
	output := opts.Output
	switch format {
	case FormatXLSX:
		data, err = export.Spreadsheet(v)
		if output == "" {
			output = export.SpreadsheetFilename
		}
	default:
		data, err = export.Delimited(v, sep)
		if output == "" {
			output = export.DelimitedFilename
		}
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errors.Wrap(err, "write output")
	}

	if v.Empty() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: no data in %s for %s\n", rng, v.Dataset)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows of %s (%s) to %s\n", v.Len(), v.Dataset, rng, output)
	return nil
}

// exportFormat picks the format from the flag, then the output extension.
func exportFormat(format, output string) (string, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case "":
	default:
		return "", errors.Errorf("invalid format %q: must be one of %v", format, []string{FormatCSV, FormatXLSX})
	}
	if strings.HasSuffix(strings.ToLower(output), "."+FormatXLSX) {
		return FormatXLSX, nil
	}
	return FormatCSV, nil
}
