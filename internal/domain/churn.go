package domain

import (
	"time"
)

// ChurnRisk classifica o risco de perda de um cliente
type ChurnRisk string

const (
	ChurnLow      ChurnRisk = "low"
	ChurnMedium   ChurnRisk = "medium"
	ChurnHigh     ChurnRisk = "high"
	ChurnCritical ChurnRisk = "critical"
)

// CustomerFeatures são as métricas RFM derivadas do histórico de compras
type CustomerFeatures struct {
	CustomerName          string    `json:"customer_name"`
	TotalRevenue          float64   `json:"total_revenue"`
	PurchaseCount         int       `json:"purchase_count"`
	AvgOrderValue         float64   `json:"avg_order_value"`
	FirstPurchase         time.Time `json:"first_purchase"`
	LastPurchase          time.Time `json:"last_purchase"`
	DaysSinceLastPurchase int       `json:"days_since_last_purchase"`
	LifespanDays          int       `json:"customer_lifespan"`
	PurchaseFrequency     float64   `json:"purchase_frequency"` // compras por mês
}

// ChurnPrediction é a previsão de churn para um cliente individual
type ChurnPrediction struct {
	CustomerName        string    `json:"customer_name"`
	ChurnProbability    float64   `json:"churn_probability"`
	RiskLevel           ChurnRisk `json:"risk_level"`
	DaysUntilChurn      int       `json:"days_until_churn"`
	KeyFactors          []string  `json:"key_factors"`
	RetentionStrategies []string  `json:"retention_strategies"`
}

// ChurnReport agrega as previsões de churn de todos os clientes
type ChurnReport struct {
	TotalCustomers    int               `json:"total_customers_analyzed"`
	HighRiskCustomers int               `json:"high_risk_customers"`
	Predictions       []ChurnPrediction `json:"predictions"`
	Insights          []string          `json:"insights"`
	GeneratedAt       time.Time         `json:"generated_at"`
	FromCache         bool              `json:"from_cache"`
}
