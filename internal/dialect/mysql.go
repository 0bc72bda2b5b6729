// Package dialect rewrites vendor-specific DDL into the canonical syntax
// the schema parser understands.
package dialect

import (
	"regexp"
	"strings"
)

var (
	lineCommentRegex = regexp.MustCompile(`--[^\n]*`)

	autoIncPKRegex = regexp.MustCompile(`(?i)\b(INT|INTEGER|BIGINT|SMALLINT)\s+PRIMARY\s+KEY\s+AUTO_INCREMENT\b`)
	autoIncRegex   = regexp.MustCompile(`(?i)\b(INT|INTEGER|BIGINT|SMALLINT)\s+AUTO_INCREMENT\b`)
	autoIncRestRe  = regexp.MustCompile(`(?i),?\s*\bAUTO_INCREMENT\b(\s*=\s*\d+)?`)

	tinyintBoolRegex = regexp.MustCompile(`(?i)\bTINYINT\s*\(\s*1\s*\)`)
	tinyintRegex     = regexp.MustCompile(`(?i)\bTINYINT\b`)
	datetimeRegex    = regexp.MustCompile(`(?i)\bDATETIME\b`)
	unsignedRegex    = regexp.MustCompile(`(?i)\s+UNSIGNED\b`)

	engineOptionsRegex = regexp.MustCompile(`(?i)\)\s*ENGINE\s*=\s*\w+[^;]*;`)
	charsetRegex       = regexp.MustCompile(`(?i)\s+(CHARACTER\s+SET|CHARSET)\s*=?\s*\w+`)
	collateRegex       = regexp.MustCompile(`(?i)\s+COLLATE\s*=?\s*\w+`)
	commentRegex       = regexp.MustCompile(`(?i)\s+COMMENT\s+(["'])[^"']*(["'])`)

	mysqlIndicators = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bAUTO_INCREMENT\b`),
		regexp.MustCompile(`(?i)\bENGINE\s*=`),
		regexp.MustCompile(`(?i)\bCHARSET\s*=`),
		regexp.MustCompile("`"),
		tinyintBoolRegex,
	}
)

// IsMySQL reports whether the DDL carries MySQL-specific syntax.
func IsMySQL(ddl string) bool {
	for _, re := range mysqlIndicators {
		if re.MatchString(ddl) {
			return true
		}
	}
	return false
}

// NormalizeMySQL rewrites MySQL DDL into the canonical dialect:
// AUTO_INCREMENT becomes SERIAL, TINYINT(1) becomes BOOLEAN, DATETIME
// becomes TIMESTAMP, and MySQL-only decoration (backticks, UNSIGNED,
// ENGINE and charset options, COMMENT clauses) is stripped. ENUM types
// are left alone; the parser models them natively.
func NormalizeMySQL(ddl string) string {
	result := lineCommentRegex.ReplaceAllString(ddl, "")

	result = autoIncPKRegex.ReplaceAllString(result, "SERIAL PRIMARY KEY")
	result = autoIncRegex.ReplaceAllString(result, "SERIAL")
	result = autoIncRestRe.ReplaceAllString(result, "")

	result = tinyintBoolRegex.ReplaceAllString(result, "BOOLEAN")
	result = tinyintRegex.ReplaceAllString(result, "SMALLINT")
	result = datetimeRegex.ReplaceAllString(result, "TIMESTAMP")
	result = unsignedRegex.ReplaceAllString(result, "")

	result = engineOptionsRegex.ReplaceAllString(result, ");")
	result = charsetRegex.ReplaceAllString(result, "")
	result = collateRegex.ReplaceAllString(result, "")
	result = commentRegex.ReplaceAllString(result, "")

	result = strings.ReplaceAll(result, "`", "")

	return result
}
