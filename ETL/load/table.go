package load

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/LilVoxy/retail_etl/ETL/dialect"
	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// column - неключевой столбец таблицы хранилища
type column struct {
	name    string
	sqlType func(d dialect.Dialect) string
}

func bigint(dialect.Dialect) string { return "BIGINT NOT NULL" }

func integer(dialect.Dialect) string { return "INTEGER NOT NULL" }

func date(dialect.Dialect) string { return "DATE NOT NULL" }

func text(d dialect.Dialect) string { return d.TextType() + " NOT NULL" }

func money(d dialect.Dialect) string { return d.MoneyType() + " NOT NULL" }

// tableSpec описывает таблицу схемы «звезда»
type tableSpec struct {
	name string

	// surrogateKey - столбец ключа, назначаемого хранилищем; пустой для таблицы фактов
	surrogateKey string

	columns []column
}

// columnNames возвращает имена столбцов для вставки
func (s tableSpec) columnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.name
	}
	return names
}

// createStatement возвращает DDL, создающий таблицу name со структурой s
func (s tableSpec) createStatement(d dialect.Dialect, name string) string {
	defs := make([]string, 0, len(s.columns)+1)
	if s.surrogateKey != "" {
		defs = append(defs, d.AutoIncrementKey(s.surrogateKey))
	}
	for _, c := range s.columns {
		defs = append(defs, c.name+" "+c.sqlType(d))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", name, strings.Join(defs, ",\n\t"))
}

// TablePublisher заменяет содержимое таблиц хранилища. Строки сначала
// пишутся в staging-таблицу запуска, которая затем занимает место рабочей
// таблицы, и читатели не видят недописанную таблицу.
type TablePublisher struct {
	db        *sql.DB
	dialect   dialect.Dialect
	logger    *utils.ETLLogger
	batchSize int
}

// NewTablePublisher создает новый экземпляр TablePublisher
func NewTablePublisher(db *sql.DB, d dialect.Dialect, logger *utils.ETLLogger, batchSize int) *TablePublisher {
	return &TablePublisher{
		db:        db,
		dialect:   d,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Publish перезаписывает таблицу spec строками rows. runToken делает имя
// staging-таблицы уникальным для запуска.
func (p *TablePublisher) Publish(ctx context.Context, spec tableSpec, rows [][]any, runToken string) error {
	staging := spec.name + "_stg_" + runToken

	// 1. Новая staging-таблица
	if _, err := p.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return fmt.Errorf("drop stale staging table %s: %w", staging, err)
	}
	if _, err := p.db.ExecContext(ctx, spec.createStatement(p.dialect, staging)); err != nil {
		return fmt.Errorf("create staging table %s: %w", staging, err)
	}

	// 2. Строки в staging
	if err := p.insertRows(ctx, staging, spec.columnNames(), rows); err != nil {
		p.dropStaging(staging)
		return err
	}

	// 3. Staging заменяет рабочую таблицу
	if err := p.swap(ctx, spec.name, staging); err != nil {
		p.dropStaging(staging)
		return err
	}

	p.logger.Debug("Таблица %s заменена, %d строк", spec.name, len(rows))
	return nil
}

// insertRows пишет rows в table пакетами многострочных INSERT в одной транзакции
func (p *TablePublisher) insertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	perStatement := p.batchSize
	if limit := p.dialect.MaxParams() / len(columns); perStatement > limit {
		perStatement = limit
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert into %s: %w", table, err)
	}
	defer tx.Rollback()

	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	for start := 0; start < len(rows); start += perStatement {
		end := min(start+perStatement, len(rows))
		batch := rows[start:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(columns))
		for i, row := range batch {
			if len(row) != len(columns) {
				return fmt.Errorf("row for %s has %d values, want %d", table, len(row), len(columns))
			}
			placeholders[i] = rowPlaceholder
			args = append(args, row...)
		}

		query := p.dialect.Rebind(prefix + strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert rows %d-%d into %s: %w", start, end-1, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert into %s: %w", table, err)
	}
	return nil
}

// swap заменяет live таблицей staging
func (p *TablePublisher) swap(ctx context.Context, live, staging string) error {
	statements := p.dialect.SwapStatements(live, staging)

	if !p.dialect.TransactionalDDL() {
		for _, stmt := range statements {
			if _, err := p.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("swap %s into %s: %w", staging, live, err)
			}
		}
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap of %s: %w", live, err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("swap %s into %s: %w", staging, live, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap of %s: %w", live, err)
	}
	return nil
}

// dropStaging удаляет staging-таблицу, оставшуюся после неудачной публикации.
// Использует новый контекст, чтобы отмененный запуск тоже убирал за собой.
func (p *TablePublisher) dropStaging(staging string) {
	if _, err := p.db.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+staging); err != nil {
		p.logger.Error("Не удалось удалить staging-таблицу %s: %v", staging, err)
	}
}
