package domain

import (
	"time"
)

// AnomalyType identifica qual sub-detector gerou a anomalia
type AnomalyType string

const (
	AnomalySalesDrop      AnomalyType = "sales_drop"
	AnomalySalesSpike     AnomalyType = "sales_spike"
	AnomalyRevenue        AnomalyType = "revenue_anomaly"
	AnomalyProduct        AnomalyType = "product_anomaly"
	AnomalyPatternBreak   AnomalyType = "pattern_break"
	AnomalyTrendReversal  AnomalyType = "trend_reversal"
)

// AnomalySeverity é a classificação ordinal derivada do deviation score
type AnomalySeverity string

const (
	SeverityLow      AnomalySeverity = "low"
	SeverityMedium   AnomalySeverity = "medium"
	SeverityHigh     AnomalySeverity = "high"
	SeverityCritical AnomalySeverity = "critical"
)

// Impacto da anomalia sobre o negócio
const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
)

// Status do ciclo de vida de uma anomalia. O núcleo de análise sempre
// grava "new"; transições posteriores são responsabilidade do chamador.
const (
	AnomalyStatusNew          = "new"
	AnomalyStatusAcknowledged = "acknowledged"
	AnomalyStatusResolved     = "resolved"
)

// Anomaly representa um desvio estatístico detectado na série de vendas.
// O ID é determinístico (derivado do tipo + usuário + data/produto/dia +
// métrica), portanto reexecuções sobre janelas sobrepostas fazem upsert
// em vez de duplicar.
type Anomaly struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	Type           AnomalyType       `json:"type"`
	Severity       AnomalySeverity   `json:"severity"`
	Status         string            `json:"status"`
	Date           time.Time         `json:"date"`
	Value          float64           `json:"value"`
	ExpectedValue  float64           `json:"expected_value"`
	DeviationScore float64           `json:"deviation_score"`
	Impact         string            `json:"impact"`
	Confidence     float64           `json:"confidence"`
	Description    string            `json:"description"`
	Suggestions    []string          `json:"suggestions"`
	Metadata       map[string]string `json:"metadata"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// severityRank define a ordenação das severidades (maior = mais grave)
var severityRank = map[AnomalySeverity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// SeverityRank retorna o peso ordinal de uma severidade para ordenação
func SeverityRank(s AnomalySeverity) int {
	return severityRank[s]
}
