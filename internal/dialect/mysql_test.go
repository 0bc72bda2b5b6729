package dialect

import (
	"strings"
	"testing"

	"github.com/fabrikdata/fabrik/internal/schema"
	"github.com/fabrikdata/fabrik/internal/types"
)

const mysqlDDL = "CREATE TABLE `users` (" +
	"  id INT PRIMARY KEY AUTO_INCREMENT," +
	"  name VARCHAR(100) NOT NULL COMMENT 'display name'," +
	"  age SMALLINT UNSIGNED," +
	"  active TINYINT(1) NOT NULL," +
	"  created_at DATETIME NOT NULL" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;"

func TestIsMySQL(t *testing.T) {
	if !IsMySQL(mysqlDDL) {
		t.Fatalf("MySQL DDL not detected")
	}
	if IsMySQL("CREATE TABLE users (id INTEGER PRIMARY KEY);") {
		t.Fatalf("canonical DDL misdetected as MySQL")
	}
}

func TestNormalizeMySQL(t *testing.T) {
	out := NormalizeMySQL(mysqlDDL)

	for _, banned := range []string{"AUTO_INCREMENT", "`", "ENGINE", "CHARSET", "TINYINT", "DATETIME", "UNSIGNED", "COMMENT"} {
		if strings.Contains(strings.ToUpper(out), banned) {
			t.Errorf("normalized DDL still contains %s:\n%s", banned, out)
		}
	}
	for _, want := range []string{"SERIAL PRIMARY KEY", "BOOLEAN", "TIMESTAMP"} {
		if !strings.Contains(out, want) {
			t.Errorf("normalized DDL missing %s:\n%s", want, out)
		}
	}
}

func TestNormalizedOutputParses(t *testing.T) {
	tables, err := schema.Parse(NormalizeMySQL(mysqlDDL))
	if err != nil {
		t.Fatalf("Parse after normalize: %v", err)
	}
	if len(tables) != 1 || tables[0].Name != "users" {
		t.Fatalf("unexpected tables: %+v", tables)
	}

	active := tables[0].Column("active")
	if active == nil || active.Type.Base != types.TypeBoolean {
		t.Fatalf("active column = %+v, want BOOLEAN", active)
	}
	created := tables[0].Column("created_at")
	if created == nil || created.Type.Base != types.TypeTimestamp {
		t.Fatalf("created_at column = %+v, want TIMESTAMP", created)
	}
}
