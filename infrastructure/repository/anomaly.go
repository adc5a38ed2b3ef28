package repository

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	anomaliesTable = "anomalies an"
)

// AnomalyRepository é o Anomaly Store. O upsert é chaveado pelo ID
// determinístico da anomalia, então execuções repetidas ou concorrentes
// sobre janelas sobrepostas são idempotentes (last write wins).
type AnomalyRepository interface {
	SaveOrUpdate(anomaly *domain.Anomaly) error
	ListByUser(userID string, status string, limit uint64) ([]*domain.Anomaly, error)
	GetByID(userID, anomalyID string) (*domain.Anomaly, error)
	UpdateStatus(userID, anomalyID, status string) error
}

type anomalyRepository struct {
	conn *postgres.Connection
}

func NewAnomalyRepository(conn *postgres.Connection) AnomalyRepository {
	return &anomalyRepository{
		conn: conn,
	}
}

func (r *anomalyRepository) SaveOrUpdate(anomaly *domain.Anomaly) error {
	suggestionsJSON, err := json.Marshal(anomaly.Suggestions)
	if err != nil {
		return fmt.Errorf("erro ao serializar sugestões para JSON: %w", err)
	}

	metadataJSON, err := json.Marshal(anomaly.Metadata)
	if err != nil {
		return fmt.Errorf("erro ao serializar metadados para JSON: %w", err)
	}

	// O status não é sobrescrito no conflito: ele pertence ao chamador
	// (new -> acknowledged -> resolved), não ao núcleo de análise.
	query, args, err := squirrel.StatementBuilder.
		Insert("anomalies").
		Columns(
			"id", "user_id", "type", "severity", "status", "date",
			"value", "expected_value", "deviation_score", "impact",
			"confidence", "description", "suggestions", "metadata",
		).
		Values(
			anomaly.ID,
			anomaly.UserID,
			string(anomaly.Type),
			string(anomaly.Severity),
			domain.AnomalyStatusNew,
			anomaly.Date,
			anomaly.Value,
			anomaly.ExpectedValue,
			anomaly.DeviationScore,
			anomaly.Impact,
			anomaly.Confidence,
			anomaly.Description,
			suggestionsJSON,
			metadataJSON,
		).
		Suffix(`
			ON CONFLICT (id) DO UPDATE SET
				severity = EXCLUDED.severity,
				value = EXCLUDED.value,
				expected_value = EXCLUDED.expected_value,
				deviation_score = EXCLUDED.deviation_score,
				impact = EXCLUDED.impact,
				confidence = EXCLUDED.confidence,
				description = EXCLUDED.description,
				suggestions = EXCLUDED.suggestions,
				metadata = EXCLUDED.metadata,
				updated_at = NOW()
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	_, err = r.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("erro ao salvar anomalia: %w", err)
	}

	return nil
}

func (r *anomalyRepository) ListByUser(userID string, status string, limit uint64) ([]*domain.Anomaly, error) {
	builder := squirrel.
		Select(
			"an.id, an.user_id, an.type, an.severity, an.status, an.date",
			"an.value, an.expected_value, an.deviation_score, an.impact",
			"an.confidence, an.description, an.suggestions, an.metadata",
			"an.created_at, an.updated_at",
		).
		From(anomaliesTable).
		Where(squirrel.Eq{"an.user_id": userID}).
		OrderBy("an.date DESC").
		Limit(limit).
		PlaceholderFormat(squirrel.Dollar)

	if status != "" {
		builder = builder.Where(squirrel.Eq{"an.status": status})
	}

	query, args, err := builder.ToSql()
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

	anomalies := make([]*domain.Anomaly, 0)
	for rows.Next() {
		anomaly, err := r.scanAnomaly(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear anomalia: %w", err)
		}
		anomalies = append(anomalies, anomaly)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return anomalies, nil
}

func (r *anomalyRepository) GetByID(userID, anomalyID string) (*domain.Anomaly, error) {
	query, args, err := squirrel.
		Select(
			"an.id, an.user_id, an.type, an.severity, an.status, an.date",
			"an.value, an.expected_value, an.deviation_score, an.impact",
			"an.confidence, an.description, an.suggestions, an.metadata",
			"an.created_at, an.updated_at",
		).
		From(anomaliesTable).
		Where(squirrel.Eq{"an.user_id": userID, "an.id": anomalyID}).
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

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	anomaly, err := r.scanAnomaly(rows)
	if err != nil {
		return nil, fmt.Errorf("erro ao escanear anomalia: %w", err)
	}

	return anomaly, nil
}

func (r *anomalyRepository) UpdateStatus(userID, anomalyID, status string) error {
	query, args, err := squirrel.StatementBuilder.
		Update("anomalies").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"user_id": userID, "id": anomalyID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	result, err := r.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("erro ao atualizar status da anomalia: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("erro ao verificar linhas afetadas: %w", err)
	}

	if affected == 0 {
		return domain.ErrAnomalyNotFound
	}

	return nil
}

func (r *anomalyRepository) scanAnomaly(rows *sql.Rows) (*domain.Anomaly, error) {
	anomaly := &domain.Anomaly{}

	var (
		anomalyType     string
		severity        string
		suggestionsJSON []byte
		metadataJSON    []byte
	)

	err := rows.Scan(
		&anomaly.ID,
		&anomaly.UserID,
		&anomalyType,
		&severity,
		&anomaly.Status,
		&anomaly.Date,
		&anomaly.Value,
		&anomaly.ExpectedValue,
		&anomaly.DeviationScore,
		&anomaly.Impact,
		&anomaly.Confidence,
		&anomaly.Description,
		&suggestionsJSON,
		&metadataJSON,
		&anomaly.CreatedAt,
		&anomaly.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	anomaly.Type = domain.AnomalyType(anomalyType)
	anomaly.Severity = domain.AnomalySeverity(severity)

	if len(suggestionsJSON) > 0 {
		if err := json.Unmarshal(suggestionsJSON, &anomaly.Suggestions); err != nil {
			return nil, fmt.Errorf("erro ao desserializar sugestões: %w", err)
		}
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &anomaly.Metadata); err != nil {
			return nil, fmt.Errorf("erro ao desserializar metadados: %w", err)
		}
	}

	return anomaly, nil
}
