// Package dialect скрывает различия SQL между поддерживаемыми базами источника и хранилища.
package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect описывает различия SQL между поддерживаемыми базами данных
type Dialect struct {
	Name string

	// numbered означает плейсхолдеры $1, $2... вместо ?
	numbered bool
}

// Поддерживаемые диалекты
var (
	MySQL    = Dialect{Name: "mysql"}
	Postgres = Dialect{Name: "postgres", numbered: true}
	SQLite   = Dialect{Name: "sqlite"}
)

// For возвращает диалект по имени драйвера database/sql
func For(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Rebind переписывает плейсхолдеры ? в форму диалекта
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AutoIncrementKey возвращает определение столбца суррогатного ключа, который назначает хранилище
func (d Dialect) AutoIncrementKey(column string) string {
	switch d {
	case MySQL:
		return column + " BIGINT AUTO_INCREMENT PRIMARY KEY"
	case Postgres:
		return column + " BIGSERIAL PRIMARY KEY"
	default:
		return column + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// TextType возвращает тип столбца для коротких строк
func (d Dialect) TextType() string {
	if d == SQLite {
		return "TEXT"
	}
	return "VARCHAR(255)"
}

// MoneyType возвращает тип столбца для денежных сумм
func (d Dialect) MoneyType() string {
	if d == SQLite {
		return "NUMERIC"
	}
	return "DECIMAL(18,4)"
}

// TimestampType возвращает тип столбца для моментов времени
func (d Dialect) TimestampType() string {
	switch d {
	case Postgres:
		return "TIMESTAMPTZ"
	case MySQL:
		return "DATETIME(6)"
	default:
		return "TIMESTAMP"
	}
}

// MaxParams - максимальное число параметров в одном запросе
func (d Dialect) MaxParams() int {
	switch d {
	case Postgres:
		return 65535
	case SQLite:
		return 32766
	default:
		return 65535
	}
}

// SwapStatements возвращает запросы, заменяющие live таблицей staging.
// Они выполняются в одной транзакции; в MySQL атомарность дает один
// RENAME нескольких таблиц, так как DDL там фиксируется неявно.
func (d Dialect) SwapStatements(live, staging string) []string {
	if d == MySQL {
		old := live + "_old"
		return []string{
			"DROP TABLE IF EXISTS " + old,
			"CREATE TABLE IF NOT EXISTS " + live + " LIKE " + staging,
			"RENAME TABLE " + live + " TO " + old + ", " + staging + " TO " + live,
			"DROP TABLE " + old,
		}
	}
	return []string{
		"DROP TABLE IF EXISTS " + live,
		"ALTER TABLE " + staging + " RENAME TO " + live,
	}
}

// TransactionalDDL сообщает, можно ли откатить DDL
func (d Dialect) TransactionalDDL() bool {
	return d != MySQL
}
