package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/fabrikdata/fabrik/internal/types"
)

// LocalService generates rows in-process without any external dependency.
// It honors the same contract an HTTP service receives, so the validation
// layer treats both identically.
type LocalService struct {
	rand    *rand.Rand
	counter int
}

func NewLocalService(seed int64) *LocalService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LocalService{rand: rand.New(rand.NewSource(seed))}
}

func (s *LocalService) RequestRows(ctx context.Context, req Request) ([]types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ServiceError{Kind: ServiceTimeout, Err: err}
	}

	rows := make([]types.Row, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		row := make(types.Row, len(req.Columns))
		for _, col := range req.Columns {
			row[col.Name] = s.generateColumn(col)
		}
		for _, fk := range req.ForeignKeys {
			s.fillForeignKey(row, fk)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *LocalService) fillForeignKey(row types.Row, fk FKSample) {
	if len(fk.Tuples) == 0 {
		if fk.AllowNull {
			for _, name := range fk.Columns {
				row[name] = nil
			}
		}
		return
	}
	if fk.AllowNull && s.rand.Intn(10) < 2 {
		for _, name := range fk.Columns {
			row[name] = nil
		}
		return
	}
	tuple := fk.Tuples[s.rand.Intn(len(fk.Tuples))]
	for i, name := range fk.Columns {
		row[name] = tuple[i]
	}
}

func (s *LocalService) generateColumn(col ColumnContract) interface{} {
	if col.Nullable && !col.Unique && s.rand.Intn(10) < 2 {
		return nil
	}

	// Key and unique columns draw from a counter so small batches never
	// collide; everything else is sampled.
	if (col.PrimaryKey || col.Unique) && col.Type.Base == types.TypeInteger {
		s.counter++
		return int64(s.counter)
	}

	switch col.Type.Base {
	case types.TypeInteger:
		lo, hi := col.MinInt, col.MaxInt
		if hi <= lo {
			lo, hi = 1, 1000000
		}
		return lo + s.rand.Int63n(hi-lo+1)
	case types.TypeDecimal:
		lo, hi := col.MinNumber, col.MaxNumber
		if hi <= lo {
			lo, hi = 0, 10000
		}
		return lo + s.rand.Float64()*(hi-lo)
	case types.TypeBoolean:
		return s.rand.Intn(2) == 1
	case types.TypeDate:
		return s.generateTime(col).Format("2006-01-02")
	case types.TypeTimestamp:
		return s.generateTime(col).Format(time.RFC3339)
	case types.TypeEnum:
		if len(col.Values) == 0 {
			return ""
		}
		return col.Values[s.rand.Intn(len(col.Values))]
	default:
		return s.generateText(col)
	}
}

func (s *LocalService) generateTime(col ColumnContract) time.Time {
	min, max := col.MinTime, col.MaxTime
	if max.IsZero() || !max.After(min) {
		max = time.Now().UTC()
		min = max.AddDate(-1, 0, 0)
	}
	span := max.Sub(min)
	return min.Add(time.Duration(s.rand.Int63n(int64(span))))
}

func (s *LocalService) generateText(col ColumnContract) string {
	name := strings.ToLower(col.Name)

	var out string
	switch {
	case strings.Contains(name, "email"):
		s.counter++
		domains := []string{"example.com", "test.com", "demo.com", "mail.com"}
		out = fmt.Sprintf("user%d_%d@%s", s.counter, s.rand.Intn(100000), domains[s.rand.Intn(len(domains))])
	case strings.Contains(name, "name"):
		first := []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
		last := []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
		out = first[s.rand.Intn(len(first))] + " " + last[s.rand.Intn(len(last))]
	case strings.Contains(name, "title"):
		titles := []string{
			"Getting Started with Go",
			"Understanding Databases",
			"Web Development Best Practices",
			"Introduction to APIs",
			"Modern Software Architecture",
		}
		out = titles[s.rand.Intn(len(titles))]
	case strings.Contains(name, "description") || strings.Contains(name, "content"):
		sentences := []string{
			"This is a sample text generated for testing purposes.",
			"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
			"The quick brown fox jumps over the lazy dog.",
			"Database design is crucial for application performance.",
		}
		out = sentences[s.rand.Intn(len(sentences))]
	case strings.Contains(name, "url") || strings.Contains(name, "link"):
		out = fmt.Sprintf("https://example.com/page/%d", s.rand.Intn(1000))
	case strings.Contains(name, "phone"):
		out = fmt.Sprintf("+1-%03d-%03d-%04d", s.rand.Intn(1000), s.rand.Intn(1000), s.rand.Intn(10000))
	case strings.Contains(name, "address"):
		out = fmt.Sprintf("%d Main Street, City, State %05d", s.rand.Intn(9999)+1, s.rand.Intn(100000))
	default:
		words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
		out = words[s.rand.Intn(len(words))]
		if col.Unique {
			s.counter++
			out = fmt.Sprintf("%s_%d", out, s.counter)
		}
	}

	if col.Unique && !strings.Contains(out, "@") && !strings.ContainsRune(out, '_') {
		s.counter++
		out = fmt.Sprintf("%s %d", out, s.counter)
	}
	if col.MaxLength > 0 {
		if runes := []rune(out); len(runes) > col.MaxLength {
			out = string(runes[:col.MaxLength])
		}
	}
	return out
}
