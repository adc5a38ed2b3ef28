package domain

import (
	"time"
)

// AnomalySummary consolida as contagens de anomalias por dimensão
type AnomalySummary struct {
	TotalAnomalies int                 `json:"total_anomalies"`
	BySeverity     map[string]int      `json:"by_severity"`
	ByType         map[string]int      `json:"by_type"`
	ByImpact       map[string]int      `json:"by_impact"`
	MostRecent     *Anomaly            `json:"most_recent,omitempty"`
	HighestScore   *Anomaly            `json:"highest_score,omitempty"`
}

// FormattedAnomaly é a anomalia preparada para exibição pelo chamador
type FormattedAnomaly struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	Description    string   `json:"description"`
	Date           string   `json:"date"`
	DaysAgo        int      `json:"days_ago"`
	Impact         string   `json:"impact"`
	Confidence     string   `json:"confidence"`
	DeviationScore float64  `json:"deviation_score"`
	TopSuggestions []string `json:"top_suggestions"`
}

// AnalysisReport é o resultado completo da análise de anomalias
type AnalysisReport struct {
	Summary         *AnomalySummary    `json:"summary"`
	Anomalies       []FormattedAnomaly `json:"anomalies"`
	Insights        []string           `json:"insights"`
	Recommendations []string           `json:"recommendations"`
	AnalysisPeriod  string             `json:"analysis_period"`
	AnalysisDate    time.Time          `json:"analysis_date"`
}

// AnomalyAlert é um alerta de atenção imediata (severidade alta e recente)
type AnomalyAlert struct {
	ID               string   `json:"id"`
	Severity         string   `json:"severity"`
	Type             string   `json:"type"`
	Description      string   `json:"description"`
	DaysAgo          int      `json:"days_ago"`
	Confidence       float64  `json:"confidence"`
	ImmediateActions []string `json:"immediate_actions"`
}

// AlertReport agrupa os alertas ativos de um usuário
type AlertReport struct {
	AlertCount int            `json:"alert_count"`
	Alerts     []AnomalyAlert `json:"alerts"`
	Summary    string         `json:"summary"`
}

// AnomalyExplanation detalha uma anomalia específica para o usuário final
type AnomalyExplanation struct {
	Anomaly        *Anomaly          `json:"anomaly"`
	WhatHappened   string            `json:"what_happened"`
	WhyDetected    string            `json:"why_detected"`
	BusinessImpact string            `json:"business_impact"`
	NextSteps      []string          `json:"next_steps"`
	Technical      map[string]string `json:"technical_details"`
}
