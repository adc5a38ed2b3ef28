package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"github.com/vfg2006/sales-analytics-api/internal/usecases/detecting"
)

// Limites de formatação do relatório
const (
	maxDisplayedAnomalies = 10
	maxInsights           = 6
	maxRecommendations    = 8
	maxAlerts             = 5
	recentAnomaliesLimit  = 50
)

// Reporter agrega a saída do detector em contagens, listas top-N, alertas
// e recomendações para a camada de apresentação. Não faz estatística nova:
// apenas formatação e seleção.
type Reporter interface {
	RunFullAnalysis(userID string, daysBack int) (*domain.AnalysisReport, error)
	GetAlerts(userID string) (*domain.AlertReport, error)
	ExplainAnomaly(userID, anomalyID string) (*domain.AnomalyExplanation, error)
	UpdateAnomalyStatus(userID, anomalyID, status string) error
}

type Service struct {
	salesRepo   repository.SalesRecordRepository
	anomalyRepo repository.AnomalyRepository
	detector    detecting.Detector
	cfg         *config.Config
}

func NewService(
	salesRepo repository.SalesRecordRepository,
	anomalyRepo repository.AnomalyRepository,
	detector detecting.Detector,
	cfg *config.Config,
) Reporter {
	return &Service{
		salesRepo:   salesRepo,
		anomalyRepo: anomalyRepo,
		detector:    detector,
		cfg:         cfg,
	}
}

// RunFullAnalysis roda a detecção sobre a janela pedida e monta o relatório
// completo. Um resultado sem anomalias é distinto de dados insuficientes:
// o erro tipado InsufficientData sobe para o chamador decidir o que pedir.
func (s *Service) RunFullAnalysis(userID string, daysBack int) (*domain.AnalysisReport, error) {
	if daysBack <= 0 {
		daysBack = s.cfg.Analysis.LookbackDays
	}

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -daysBack)

	records, err := s.salesRepo.GetByUserAndPeriod(userID, start, now, uint64(s.cfg.Analysis.RecordCap))
	if err != nil {
		return nil, err
	}

	anomalies, err := s.detector.DetectAll(userID, records, now)
	if err != nil {
		return nil, err
	}

	report := &domain.AnalysisReport{
		AnalysisPeriod: fmt.Sprintf("Últimos %d dias", daysBack),
		AnalysisDate:   now,
	}

	if len(anomalies) == 0 {
		report.Summary = emptySummary()
		report.Anomalies = []domain.FormattedAnomaly{}
		report.Insights = []string{
			fmt.Sprintf("Nenhuma anomalia detectada nos últimos %d dias", daysBack),
		}
		report.Recommendations = []string{
			"Continue monitorando as métricas do negócio",
			"Mantenha a entrada de dados consistente",
			"Revise o desempenho regularmente",
		}
		return report, nil
	}

	report.Summary = summarize(anomalies)
	report.Anomalies = formatForDisplay(anomalies, now)
	report.Insights = buildInsights(anomalies, now)
	report.Recommendations = buildRecommendations(anomalies)

	logrus.WithFields(logrus.Fields{
		"user_id":         userID,
		"days_back":       daysBack,
		"total_anomalies": len(anomalies),
	}).Info("reporting: full analysis completed")

	return report, nil
}

// GetAlerts retorna as anomalias críticas/altas recentes que pedem atenção
// imediata
func (s *Service) GetAlerts(userID string) (*domain.AlertReport, error) {
	anomalies, err := s.anomalyRepo.ListByUser(userID, domain.AnomalyStatusNew, recentAnomaliesLimit)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	alertWindow := s.cfg.Analysis.AlertWindowDays

	critical := make([]*domain.Anomaly, 0)
	for _, anomaly := range anomalies {
		if anomaly.Severity != domain.SeverityCritical && anomaly.Severity != domain.SeverityHigh {
			continue
		}
		if daysAgo(anomaly.Date, now) <= alertWindow {
			critical = append(critical, anomaly)
		}
	}

	report := &domain.AlertReport{
		AlertCount: len(critical),
		Alerts:     make([]domain.AnomalyAlert, 0, maxAlerts),
	}

	if len(critical) == 0 {
		report.Summary = "Nenhuma anomalia crítica exigindo atenção imediata"
		return report, nil
	}

	for _, anomaly := range critical {
		if len(report.Alerts) >= maxAlerts {
			break
		}

		actions := anomaly.Suggestions
		if len(actions) > 2 {
			actions = actions[:2]
		}

		report.Alerts = append(report.Alerts, domain.AnomalyAlert{
			ID:               anomaly.ID,
			Severity:         string(anomaly.Severity),
			Type:             string(anomaly.Type),
			Description:      anomaly.Description,
			DaysAgo:          daysAgo(anomaly.Date, now),
			Confidence:       anomaly.Confidence,
			ImmediateActions: actions,
		})
	}

	report.Summary = fmt.Sprintf("%d problemas críticos encontrados exigindo atenção", len(critical))

	return report, nil
}

// ExplainAnomaly produz a explicação detalhada de uma anomalia específica
func (s *Service) ExplainAnomaly(userID, anomalyID string) (*domain.AnomalyExplanation, error) {
	anomaly, err := s.anomalyRepo.GetByID(userID, anomalyID)
	if err != nil {
		return nil, err
	}

	if anomaly == nil {
		return nil, domain.ErrAnomalyNotFound
	}

	return &domain.AnomalyExplanation{
		Anomaly:        anomaly,
		WhatHappened:   describeWhatHappened(anomaly),
		WhyDetected:    describeWhyDetected(anomaly),
		BusinessImpact: describeBusinessImpact(anomaly),
		NextSteps:      anomaly.Suggestions,
		Technical:      anomaly.Metadata,
	}, nil
}

// UpdateAnomalyStatus move a anomalia no fluxo new -> acknowledged ->
// resolved. O status pertence ao usuário; a detecção nunca o sobrescreve.
func (s *Service) UpdateAnomalyStatus(userID, anomalyID, status string) error {
	switch status {
	case domain.AnomalyStatusNew, domain.AnomalyStatusAcknowledged, domain.AnomalyStatusResolved:
	default:
		return errors.Errorf("status de anomalia inválido: %s", status)
	}

	return s.anomalyRepo.UpdateStatus(userID, anomalyID, status)
}

func emptySummary() *domain.AnomalySummary {
	return &domain.AnomalySummary{
		BySeverity: map[string]int{},
		ByType:     map[string]int{},
		ByImpact:   map[string]int{},
	}
}

// summarize conta as anomalias por severidade, tipo e impacto e encontra a
// mais recente e a de maior desvio
func summarize(anomalies []*domain.Anomaly) *domain.AnomalySummary {
	summary := &domain.AnomalySummary{
		TotalAnomalies: len(anomalies),
		BySeverity:     map[string]int{},
		ByType:         map[string]int{},
		ByImpact:       map[string]int{},
	}

	for _, anomaly := range anomalies {
		summary.BySeverity[string(anomaly.Severity)]++
		summary.ByType[string(anomaly.Type)]++
		summary.ByImpact[anomaly.Impact]++

		if summary.MostRecent == nil || anomaly.Date.After(summary.MostRecent.Date) {
			summary.MostRecent = anomaly
		}
		if summary.HighestScore == nil || anomaly.DeviationScore > summary.HighestScore.DeviationScore {
			summary.HighestScore = anomaly
		}
	}

	return summary
}

func formatForDisplay(anomalies []*domain.Anomaly, now time.Time) []domain.FormattedAnomaly {
	limit := maxDisplayedAnomalies
	if len(anomalies) < limit {
		limit = len(anomalies)
	}

	formatted := make([]domain.FormattedAnomaly, 0, limit)
	for _, anomaly := range anomalies[:limit] {
		suggestions := anomaly.Suggestions
		if len(suggestions) > 2 {
			suggestions = suggestions[:2]
		}

		formatted = append(formatted, domain.FormattedAnomaly{
			ID:             anomaly.ID,
			Type:           strings.ReplaceAll(string(anomaly.Type), "_", " "),
			Severity:       strings.ToUpper(string(anomaly.Severity)),
			Description:    anomaly.Description,
			Date:           anomaly.Date.Format(time.DateOnly),
			DaysAgo:        daysAgo(anomaly.Date, now),
			Impact:         anomaly.Impact,
			Confidence:     fmt.Sprintf("%.0f%%", anomaly.Confidence*100),
			DeviationScore: anomaly.DeviationScore,
			TopSuggestions: suggestions,
		})
	}

	return formatted
}

// buildInsights gera até 6 leituras do conjunto de anomalias
func buildInsights(anomalies []*domain.Anomaly, now time.Time) []string {
	insights := make([]string, 0, maxInsights)

	var criticalCount, highCount, negativeCount, positiveCount, recentCount, highConfidence int
	typeCounts := map[domain.AnomalyType]int{}

	for _, anomaly := range anomalies {
		switch anomaly.Severity {
		case domain.SeverityCritical:
			criticalCount++
		case domain.SeverityHigh:
			highCount++
		}

		if anomaly.Impact == domain.ImpactNegative {
			negativeCount++
		} else {
			positiveCount++
		}

		if daysAgo(anomaly.Date, now) <= 3 {
			recentCount++
		}

		if anomaly.Confidence > 0.8 {
			highConfidence++
		}

		typeCounts[anomaly.Type]++
	}

	if criticalCount > 0 {
		insights = append(insights, fmt.Sprintf("%d problemas críticos detectados exigindo ação imediata", criticalCount))
	}
	if highCount > 0 {
		insights = append(insights, fmt.Sprintf("%d problemas de alta prioridade precisam de atenção", highCount))
	}

	var mostCommonType domain.AnomalyType
	mostCommonCount := 0
	for anomalyType, count := range typeCounts {
		if count > mostCommonCount || (count == mostCommonCount && anomalyType < mostCommonType) {
			mostCommonType = anomalyType
			mostCommonCount = count
		}
	}
	if mostCommonCount > 1 {
		insights = append(insights, fmt.Sprintf(
			"Problema mais frequente: %s (%d ocorrências)",
			strings.ReplaceAll(string(mostCommonType), "_", " "), mostCommonCount,
		))
	}

	if negativeCount > positiveCount {
		insights = append(insights, fmt.Sprintf("%d anomalias negativas contra %d positivas", negativeCount, positiveCount))
	} else if positiveCount > negativeCount {
		insights = append(insights, fmt.Sprintf("%d anomalias positivas contra %d negativas", positiveCount, negativeCount))
	}

	if recentCount > 3 {
		insights = append(insights, fmt.Sprintf("%d anomalias detectadas nos últimos 3 dias", recentCount))
	}

	if highConfidence > 0 {
		insights = append(insights, fmt.Sprintf("%d anomalias com confiança alta (>80%%)", highConfidence))
	}

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}

	return insights
}

// buildRecommendations gera até 8 recomendações deduplicadas a partir dos
// padrões do conjunto de anomalias
func buildRecommendations(anomalies []*domain.Anomaly) []string {
	recommendations := make([]string, 0, maxRecommendations)
	seen := map[string]bool{}

	add := func(recommendation string) {
		if len(recommendations) >= maxRecommendations || seen[recommendation] {
			return
		}
		seen[recommendation] = true
		recommendations = append(recommendations, recommendation)
	}

	var criticalAnomalies []*domain.Anomaly
	var revenueCount, salesCount, productCount, negativeCount int

	for _, anomaly := range anomalies {
		if anomaly.Severity == domain.SeverityCritical {
			criticalAnomalies = append(criticalAnomalies, anomaly)
		}

		switch anomaly.Type {
		case domain.AnomalyRevenue:
			revenueCount++
		case domain.AnomalySalesDrop, domain.AnomalySalesSpike:
			salesCount++
		case domain.AnomalyProduct:
			productCount++
		}

		if anomaly.Impact == domain.ImpactNegative {
			negativeCount++
		}
	}

	if len(criticalAnomalies) > 0 {
		add("Trate os problemas críticos imediatamente - revise as operações do negócio")
		for _, anomaly := range criticalAnomalies {
			suggestions := anomaly.Suggestions
			if len(suggestions) > 2 {
				suggestions = suggestions[:2]
			}
			for _, suggestion := range suggestions {
				add(suggestion)
			}
		}
	}

	if revenueCount > 2 {
		add("Revise as estratégias de preço e receita - múltiplas anomalias de receita detectadas")
	}
	if salesCount > 2 {
		add("Analise os padrões de venda e fatores externos afetando o volume")
	}
	if productCount > 1 {
		add("Conduza uma revisão completa do desempenho dos produtos")
	}

	if negativeCount > len(anomalies)/2 {
		add("Foque em ações corretivas para reverter as tendências negativas")
		add("Investigue as causas-raiz dos problemas de desempenho")
	}

	add("Aumente a frequência de monitoramento para detecção precoce")
	add("Documente as ações de resolução para referência futura")

	return recommendations
}

func describeWhatHappened(anomaly *domain.Anomaly) string {
	date := anomaly.Date.Format("02/01/2006")

	switch anomaly.Type {
	case domain.AnomalySalesDrop:
		return fmt.Sprintf(
			"O volume de vendas caiu para %.0f em %s, %.1f desvios padrão abaixo do normal.",
			anomaly.Value, date, anomaly.DeviationScore,
		)
	case domain.AnomalySalesSpike:
		return fmt.Sprintf(
			"O volume de vendas subiu para %.0f em %s, %.1f desvios padrão acima do normal.",
			anomaly.Value, date, anomaly.DeviationScore,
		)
	case domain.AnomalyRevenue:
		return fmt.Sprintf(
			"A receita desviou para R$ %.2f, contra R$ %.2f esperados.",
			anomaly.Value, anomaly.ExpectedValue,
		)
	case domain.AnomalyProduct:
		productName := anomaly.Metadata["product_name"]
		return fmt.Sprintf(
			"O produto '%s' apresentou desempenho fora do padrão dos demais produtos.",
			productName,
		)
	case domain.AnomalyPatternBreak:
		dayName := anomaly.Metadata["day_name"]
		return fmt.Sprintf(
			"O padrão de vendas de %s foi significativamente diferente do esperado.",
			dayName,
		)
	case domain.AnomalyTrendReversal:
		direction := anomaly.Metadata["trend_direction"]
		return fmt.Sprintf(
			"Foi detectada uma reversão de tendência, com as vendas virando para %s.",
			direction,
		)
	default:
		return anomaly.Description
	}
}

func describeWhyDetected(anomaly *domain.Anomaly) string {
	return fmt.Sprintf(
		"Esta anomalia foi detectada por análise estatística com %.0f%% de confiança. O deviation score de %.2f indica um outlier estatisticamente significativo.",
		anomaly.Confidence*100, anomaly.DeviationScore,
	)
}

func describeBusinessImpact(anomaly *domain.Anomaly) string {
	if anomaly.Impact == domain.ImpactNegative {
		return "Esta anomalia indica um possível problema que pode afetar o desempenho do negócio se não for tratado."
	}
	return "Esta anomalia representa um desvio positivo que pode indicar estratégias bem-sucedidas a replicar."
}

func daysAgo(date, now time.Time) int {
	return int(now.Sub(date).Hours() / 24)
}
