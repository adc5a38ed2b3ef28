package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
)

const (
	salesRecordsTable = "sales_records sr"
)

// SalesRecordRepository é o Sales Ledger: a fonte de registros de vendas
// consumida pelo agregador diário, pelo detector e pelo motor de previsão.
type SalesRecordRepository interface {
	Save(record *domain.SalesRecord) error
	GetByUserAndPeriod(userID string, startDate, endDate time.Time, limit uint64) ([]*domain.SalesRecord, error)
	ListActiveUserIDs(since time.Time) ([]string, error)
}

type salesRecordRepository struct {
	conn *postgres.Connection
}

func NewSalesRecordRepository(conn *postgres.Connection) SalesRecordRepository {
	return &salesRecordRepository{
		conn: conn,
	}
}

func (r *salesRecordRepository) Save(record *domain.SalesRecord) error {
	query, args, err := squirrel.StatementBuilder.
		Insert("sales_records").
		Columns(
			"id", "user_id", "date", "product_name", "quantity",
			"unit_price", "total_amount", "customer_name", "category", "payment_method",
		).
		Values(
			record.ID,
			record.UserID,
			record.Date,
			record.ProductName,
			record.Quantity,
			record.UnitPrice,
			record.TotalAmount,
			record.CustomerName,
			record.Category,
			record.PaymentMethod,
		).
		Suffix(`
			ON CONFLICT (id) DO UPDATE SET
				product_name = EXCLUDED.product_name,
				quantity = EXCLUDED.quantity,
				unit_price = EXCLUDED.unit_price,
				total_amount = EXCLUDED.total_amount,
				customer_name = EXCLUDED.customer_name,
				category = EXCLUDED.category,
				payment_method = EXCLUDED.payment_method,
				updated_at = NOW()
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	_, err = r.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("erro ao salvar registro de venda: %w", err)
	}

	return nil
}

// GetByUserAndPeriod retorna os registros do usuário no intervalo [startDate, endDate),
// ordenados por data crescente. O limite mantém o custo de agrupamento previsível.
func (r *salesRecordRepository) GetByUserAndPeriod(userID string, startDate, endDate time.Time, limit uint64) ([]*domain.SalesRecord, error) {
	query, args, err := squirrel.
		Select(
			"sr.id, sr.user_id, sr.date, sr.product_name, sr.quantity",
			"sr.unit_price, sr.total_amount, sr.customer_name, sr.category, sr.payment_method",
			"sr.created_at, sr.updated_at",
		).
		From(salesRecordsTable).
		Where(squirrel.Eq{"sr.user_id": userID}).
		Where(squirrel.GtOrEq{"sr.date": startDate}).
		Where(squirrel.Lt{"sr.date": endDate}).
		OrderBy("sr.date ASC").
		Limit(limit).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.SalesRecord, 0)
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear registro de venda: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return records, nil
}

// ListActiveUserIDs retorna os usuários com vendas registradas desde a data
// informada. Usado pela varredura noturna de anomalias.
func (r *salesRecordRepository) ListActiveUserIDs(since time.Time) ([]string, error) {
	query, args, err := squirrel.
		Select("DISTINCT sr.user_id").
		From(salesRecordsTable).
		Where(squirrel.GtOrEq{"sr.date": since}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	userIDs := make([]string, 0)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("erro ao escanear user_id: %w", err)
		}
		userIDs = append(userIDs, userID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return userIDs, nil
}

func (r *salesRecordRepository) scanRecord(rows *sql.Rows) (*domain.SalesRecord, error) {
	record := &domain.SalesRecord{}

	err := rows.Scan(
		&record.ID,
		&record.UserID,
		&record.Date,
		&record.ProductName,
		&record.Quantity,
		&record.UnitPrice,
		&record.TotalAmount,
		&record.CustomerName,
		&record.Category,
		&record.PaymentMethod,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return record, nil
}
