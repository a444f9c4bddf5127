package table

// Source kinds.
const (
	KindXLSX = "xlsx"
	KindCSV  = "csv"
	KindSQL  = "sql"
)

// DefaultSheet is the worksheet every workbook source is read from unless
// configured otherwise.
const DefaultSheet = "DATA"

// Source describes where one dataset comes from.
type Source struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Kind  string `mapstructure:"kind" yaml:"kind,omitempty"`
	Path  string `mapstructure:"path" yaml:"path,omitempty"`
	Sheet string `mapstructure:"sheet" yaml:"sheet,omitempty"`

	// sql sources only
	Driver string `mapstructure:"driver" yaml:"driver,omitempty"`
	DSN    string `mapstructure:"dsn" yaml:"dsn,omitempty"`
	Table  string `mapstructure:"table" yaml:"table,omitempty"`
}

// DefaultSources returns the four post-cure oven workbooks.
func DefaultSources() []Source {
	return []Source{
		{Name: "dataset1", Kind: KindXLSX, Path: "BMV#80 & BMV#88 & BMV#86 & BMV#69.xlsx", Sheet: DefaultSheet},
		{Name: "dataset2", Kind: KindXLSX, Path: "MEM#01 & MEM#02 & BMV#91.xlsx", Sheet: DefaultSheet},
		{Name: "dataset3", Kind: KindXLSX, Path: "MEM#03.xlsx", Sheet: DefaultSheet},
		{Name: "dataset4", Kind: KindXLSX, Path: "MEM#19 & MEM#20.xlsx", Sheet: DefaultSheet},
	}
}

// ResolvedKind returns the source kind, inferring it when unset: sql when a
// DSN or table is given, csv for a .csv path, xlsx otherwise.
func (s Source) ResolvedKind() string {
	if s.Kind != "" {
		return s.Kind
	}
	if s.DSN != "" || s.Table != "" {
		return KindSQL
	}
	if hasSuffixFold(s.Path, ".csv") {
		return KindCSV
	}
	return KindXLSX
}

func (s Source) sheet() string {
	if s.Sheet == "" {
		return DefaultSheet
	}
	return s.Sheet
}

// Location is what a load error reports as the source's path: the file
// path, or driver:table for sql sources.
func (s Source) Location() string {
	if s.ResolvedKind() == KindSQL {
		return s.Driver + ":" + s.Table
	}
	return s.Path
}
