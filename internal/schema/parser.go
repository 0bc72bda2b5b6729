package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fabrikdata/fabrik/internal/types"
)

var (
	commentRegex     = regexp.MustCompile(`--.*|/\*[\s\S]*?\*/`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	createTableRegex = regexp.MustCompile(`(?i)^CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:"([^"]+)"|\x60([^\x60]+)\x60|'([^']+)'|([a-zA-Z_][a-zA-Z0-9_$]*))\s*\(`)
	isCreateTable    = regexp.MustCompile(`(?i)^\s*CREATE\s+TABLE\b`)

	tablePKRegex     = regexp.MustCompile(`(?i)^PRIMARY\s+KEY\s*\(([^)]+)\)`)
	tableFKRegex     = regexp.MustCompile(`(?i)^FOREIGN\s+KEY\s*\(([^)]+)\)\s*REFERENCES\s+(?:"([^"]+)"|\x60([^\x60]+)\x60|([a-zA-Z_][a-zA-Z0-9_$]*))\s*(?:\(([^)]+)\))?`)
	tableUniqueRegex = regexp.MustCompile(`(?i)^UNIQUE\s*\(([^)]+)\)`)
	constraintName   = regexp.MustCompile(`(?i)^CONSTRAINT\s+(?:"[^"]+"|\x60[^\x60]+\x60|[a-zA-Z_][a-zA-Z0-9_$]*)\s+`)

	inlineRefRegex = regexp.MustCompile(`(?i)\bREFERENCES\s+(?:"([^"]+)"|\x60([^\x60]+)\x60|([a-zA-Z_][a-zA-Z0-9_$]*))\s*(?:\(([^)]+)\))?`)
	defaultRegex   = regexp.MustCompile(`(?i)\bDEFAULT\s+('[^']*'|\([^)]*\)|[^,\s]+)`)

	enumRegex    = regexp.MustCompile(`(?i)^ENUM\s*\(([\s\S]*)\)$`)
	enumValRegex = regexp.MustCompile(`'([^']*)'`)
	paramsRegex  = regexp.MustCompile(`\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)
)

// Parse turns raw DDL text into an ordered table collection. Statements
// that are not CREATE TABLE are skipped. Foreign keys may reference tables
// defined later in the document; resolution happens after all statements
// have been read. Parse has no side effects and the same input always
// yields the same output.
func Parse(ddl string) ([]types.TableSchema, error) {
	cleaned := cleanSQL(ddl)

	var tables []types.TableSchema
	index := make(map[string]int)

	for i, stmt := range splitStatements(cleaned) {
		if !isCreateTable.MatchString(stmt) {
			continue
		}
		table, err := parseCreateTable(stmt, i+1)
		if err != nil {
			return nil, err
		}
		if pos, ok := index[table.Name]; ok {
			tables[pos] = table
			continue
		}
		index[table.Name] = len(tables)
		tables = append(tables, table)
	}

	if err := resolveReferences(tables, index); err != nil {
		return nil, err
	}

	// Primary key columns are NOT NULL regardless of declared nullability.
	for i := range tables {
		for _, pk := range tables[i].PrimaryKey {
			if col := tables[i].Column(pk); col != nil {
				col.Nullable = false
			}
		}
	}

	return tables, nil
}

func cleanSQL(sql string) string {
	sql = commentRegex.ReplaceAllString(sql, "")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(sql, " "))
}

func splitStatements(sql string) []string {
	statements := strings.Split(sql, ";")
	result := make([]string, 0, len(statements))

	for _, stmt := range statements {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}

func parseCreateTable(stmt string, index int) (types.TableSchema, error) {
	matches := createTableRegex.FindStringSubmatch(stmt)
	if matches == nil {
		return types.TableSchema{}, &ParseError{Kind: ErrMalformed, Statement: index, Detail: "could not extract table name"}
	}
	name := ""
	for _, m := range matches[1:] {
		if m != "" {
			name = m
			break
		}
	}

	start, end := strings.Index(stmt, "("), strings.LastIndex(stmt, ")")
	if start == -1 || end == -1 || end < start {
		return types.TableSchema{}, &ParseError{Kind: ErrMalformed, Statement: index, Detail: "missing column definition list"}
	}

	table := types.TableSchema{Name: cleanIdentifier(name)}

	for _, def := range splitDefinitions(stmt[start+1 : end]) {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}

		if isTableConstraint(def) {
			if err := parseTableConstraint(def, &table, index); err != nil {
				return types.TableSchema{}, err
			}
			continue
		}

		col, fk, err := parseColumn(def, index)
		if err != nil {
			return types.TableSchema{}, err
		}
		if inlinePK(def) {
			table.PrimaryKey = append(table.PrimaryKey, col.Name)
		}
		table.Columns = append(table.Columns, col)
		if fk != nil {
			table.ForeignKeys = append(table.ForeignKeys, *fk)
		}
	}

	if len(table.Columns) == 0 {
		return types.TableSchema{}, &ParseError{Kind: ErrMalformed, Statement: index, Detail: "table has no columns"}
	}

	return table, nil
}

// splitDefinitions splits the body of a CREATE TABLE on top-level commas,
// tracking parenthesis depth and single-quoted literals so DECIMAL(10,2)
// and ENUM('a','b') stay intact.
func splitDefinitions(defs string) []string {
	var result []string
	var current strings.Builder
	parenLevel := 0
	inQuote := false

	for _, char := range defs {
		switch {
		case char == '\'':
			inQuote = !inQuote
			current.WriteRune(char)
		case inQuote:
			current.WriteRune(char)
		case char == '(':
			parenLevel++
			current.WriteRune(char)
		case char == ')':
			parenLevel--
			current.WriteRune(char)
		case char == ',' && parenLevel == 0:
			result = append(result, current.String())
			current.Reset()
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

var tableConstraintStart = regexp.MustCompile(`(?i)^(PRIMARY\s+KEY\b|FOREIGN\s+KEY\b|UNIQUE\s*\(|CHECK\s*\()`)

func isTableConstraint(def string) bool {
	def = constraintName.ReplaceAllString(strings.TrimSpace(def), "")
	return tableConstraintStart.MatchString(def)
}

func parseTableConstraint(def string, table *types.TableSchema, index int) error {
	def = constraintName.ReplaceAllString(strings.TrimSpace(def), "")

	if m := tablePKRegex.FindStringSubmatch(def); m != nil {
		table.PrimaryKey = append(table.PrimaryKey, splitIdentifierList(m[1])...)
		return nil
	}

	if m := tableFKRegex.FindStringSubmatch(def); m != nil {
		refTable := firstNonEmpty(m[2], m[3], m[4])
		fk := types.ForeignKey{
			Columns:  splitIdentifierList(m[1]),
			RefTable: cleanIdentifier(refTable),
		}
		if m[5] != "" {
			fk.RefColumns = splitIdentifierList(m[5])
		}
		table.ForeignKeys = append(table.ForeignKeys, fk)
		return nil
	}

	if m := tableUniqueRegex.FindStringSubmatch(def); m != nil {
		cols := splitIdentifierList(m[1])
		// Only a single-column UNIQUE constraint marks the column itself.
		if len(cols) == 1 {
			if col := table.Column(cols[0]); col != nil {
				col.IsUnique = true
			}
		}
		return nil
	}

	// CHECK and anything else constraint-shaped is skipped.
	if strings.HasPrefix(strings.ToUpper(def), "CHECK") {
		return nil
	}
	return &ParseError{Kind: ErrMalformed, Statement: index, Detail: fmt.Sprintf("unparseable constraint: %s", def)}
}

func parseColumn(def string, index int) (types.ColumnDef, *types.ForeignKey, error) {
	spaceIdx := strings.IndexAny(def, " \t")
	if spaceIdx == -1 {
		return types.ColumnDef{}, nil, &ParseError{Kind: ErrMalformed, Statement: index, Detail: fmt.Sprintf("invalid column definition: %s", def)}
	}

	name := cleanIdentifier(def[:spaceIdx])
	rest := strings.TrimSpace(def[spaceIdx+1:])
	if rest == "" {
		return types.ColumnDef{}, nil, &ParseError{Kind: ErrMalformed, Statement: index, Detail: fmt.Sprintf("column %s has no type", name)}
	}

	rawType := extractRawType(rest)
	col := types.ColumnDef{
		Name:     name,
		Type:     normalizeType(rawType),
		Nullable: !strings.Contains(strings.ToUpper(def), "NOT NULL"),
	}

	upper := strings.ToUpper(def)
	if strings.Contains(upper, " UNIQUE") || strings.HasSuffix(upper, "UNIQUE") {
		col.IsUnique = true
	}
	if m := defaultRegex.FindStringSubmatch(def); m != nil {
		col.Default = strings.Trim(m[1], "'")
	}

	var fk *types.ForeignKey
	if m := inlineRefRegex.FindStringSubmatch(def); m != nil {
		refTable := firstNonEmpty(m[1], m[2], m[3])
		fk = &types.ForeignKey{
			Columns:  []string{name},
			RefTable: cleanIdentifier(refTable),
		}
		if m[4] != "" {
			fk.RefColumns = splitIdentifierList(m[4])
		}
	}

	return col, fk, nil
}

func inlinePK(def string) bool {
	return strings.Contains(strings.ToUpper(def), "PRIMARY KEY")
}

// extractRawType picks the type portion of a column definition, keeping
// parenthesized parameters and the usual multi-word forms together.
func extractRawType(rest string) string {
	upper := strings.ToUpper(rest)
	for _, multi := range []string{
		"TIMESTAMP WITH TIME ZONE",
		"TIMESTAMP WITHOUT TIME ZONE",
		"DOUBLE PRECISION",
	} {
		if strings.HasPrefix(upper, multi) {
			return multi
		}
	}
	if strings.HasPrefix(upper, "CHARACTER VARYING") {
		tail := rest[len("CHARACTER VARYING"):]
		if m := paramsRegex.FindString(tail); m != "" && strings.HasPrefix(strings.TrimSpace(tail), "(") {
			return "CHARACTER VARYING" + m
		}
		return "CHARACTER VARYING"
	}

	parenDepth := 0
	typeEnd := 0
	for i, ch := range rest {
		if ch == '(' {
			parenDepth++
		} else if ch == ')' {
			parenDepth--
			if parenDepth == 0 {
				typeEnd = i + 1
				break
			}
		} else if parenDepth == 0 && (ch == ' ' || ch == '\t') {
			typeEnd = i
			break
		}
	}
	if typeEnd == 0 {
		typeEnd = len(rest)
	}
	return rest[:typeEnd]
}

// normalizeType folds the raw SQL type into the canonical tag set. Unknown
// types degrade to TEXT rather than failing the parse.
func normalizeType(raw string) types.ColumnType {
	upper := strings.ToUpper(strings.TrimSpace(raw))

	if m := enumRegex.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		var values []string
		for _, v := range enumValRegex.FindAllStringSubmatch(m[1], -1) {
			values = append(values, v[1])
		}
		return types.ColumnType{Base: types.TypeEnum, Values: values}
	}

	base := upper
	if idx := strings.Index(base, "("); idx > 0 {
		base = strings.TrimSpace(base[:idx])
	}

	switch {
	case strings.Contains(base, "INT") || strings.Contains(base, "SERIAL"):
		return types.ColumnType{Base: types.TypeInteger}
	case base == "DECIMAL" || base == "NUMERIC":
		ct := types.ColumnType{Base: types.TypeDecimal}
		if m := paramsRegex.FindStringSubmatch(upper); m != nil {
			ct.Precision, _ = strconv.Atoi(m[1])
			if m[2] != "" {
				ct.Scale, _ = strconv.Atoi(m[2])
			}
		}
		return ct
	case strings.Contains(base, "FLOAT") || strings.Contains(base, "DOUBLE") ||
		base == "REAL" || base == "MONEY":
		return types.ColumnType{Base: types.TypeDecimal}
	case strings.Contains(base, "VARCHAR") || strings.Contains(base, "CHARACTER VARYING") ||
		base == "CHAR" || base == "CHARACTER" || base == "NCHAR":
		ct := types.ColumnType{Base: types.TypeVarchar, Length: 255}
		if m := paramsRegex.FindStringSubmatch(upper); m != nil {
			ct.Length, _ = strconv.Atoi(m[1])
		}
		return ct
	case strings.Contains(base, "BOOL"):
		return types.ColumnType{Base: types.TypeBoolean}
	case strings.Contains(base, "TIMESTAMP") || base == "DATETIME":
		return types.ColumnType{Base: types.TypeTimestamp}
	case base == "DATE":
		return types.ColumnType{Base: types.TypeDate}
	case base == "TEXT" || base == "CLOB":
		return types.ColumnType{Base: types.TypeText}
	default:
		return types.ColumnType{Base: types.TypeText}
	}
}

// resolveReferences runs after every statement has been parsed so forward
// and self references work. Missing column lists fall back to the
// referenced table's primary key.
func resolveReferences(tables []types.TableSchema, index map[string]int) error {
	for i := range tables {
		for j := range tables[i].ForeignKeys {
			fk := &tables[i].ForeignKeys[j]

			pos, ok := index[fk.RefTable]
			if !ok {
				return &ParseError{Kind: ErrUnresolvedReference, Table: tables[i].Name, Detail: fk.RefTable}
			}

			if len(fk.RefColumns) == 0 {
				ref := tables[pos]
				fk.RefColumns = append([]string(nil), ref.PrimaryKey...)
			}

			if len(fk.Columns) != len(fk.RefColumns) {
				return &ParseError{
					Kind:  ErrArityMismatch,
					Table: tables[i].Name,
					Detail: fmt.Sprintf("(%s) references %s (%s)",
						strings.Join(fk.Columns, ","), fk.RefTable, strings.Join(fk.RefColumns, ",")),
				}
			}
		}
	}
	return nil
}

func cleanIdentifier(identifier string) string {
	s := strings.TrimSpace(identifier)
	s = strings.Trim(s, "\"'`")
	return strings.ToLower(s)
}

func splitIdentifierList(list string) []string {
	parts := strings.Split(list, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = cleanIdentifier(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
