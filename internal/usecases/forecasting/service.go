package forecasting

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"github.com/vfg2006/sales-analytics-api/internal/usecases/aggregating"
	"github.com/vfg2006/sales-analytics-api/pkg/utils"
)

// Limites do horizonte de previsão
const (
	MinForecastDays = 1
	MaxForecastDays = 90
)

// Penalidade de seleção: um método cuja média diária prevista foge mais de
// 3x (ou menos de 0.1x) da média histórica tem o MAE efetivo dobrado, para
// impedir que uma extrapolação degenerada "vença" com poucos dados
const (
	extremeRatioUpper  = 3.0
	extremeRatioLower  = 0.1
	extremeMAEPenalty  = 2.0
)

// Forecaster é o ponto de entrada do motor de previsão
type Forecaster interface {
	Forecast(records []*domain.SalesRecord, forecastDays int) (*domain.ForecastResult, error)
	ForecastForUser(userID string, historicalDays, forecastDays int) (*domain.ForecastResult, error)
}

// Service roda os quatro métodos independentes de previsão, seleciona o
// melhor por MAE e calcula o score composto de confiança.
type Service struct {
	salesRepo repository.SalesRecordRepository
	cfg       *config.Config
}

func NewService(salesRepo repository.SalesRecordRepository, cfg *config.Config) *Service {
	return &Service{
		salesRepo: salesRepo,
		cfg:       cfg,
	}
}

// ForecastForUser busca o histórico do usuário e delega para Forecast
func (s *Service) ForecastForUser(userID string, historicalDays, forecastDays int) (*domain.ForecastResult, error) {
	if historicalDays <= 0 {
		historicalDays = s.cfg.Analysis.LookbackDays
	}
	if forecastDays <= 0 {
		forecastDays = s.cfg.Analysis.ForecastDaysDefault
	}

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -historicalDays)

	records, err := s.salesRepo.GetByUserAndPeriod(userID, start, now, uint64(s.cfg.Analysis.RecordCap))
	if err != nil {
		return nil, err
	}

	return s.Forecast(records, forecastDays)
}

// Forecast produz a previsão de receita para o horizonte pedido. Cada
// método que não consegue operar sobre os pontos disponíveis é excluído da
// seleção em vez de derrubar a chamada inteira.
func (s *Service) Forecast(records []*domain.SalesRecord, forecastDays int) (*domain.ForecastResult, error) {
	if forecastDays < MinForecastDays {
		forecastDays = MinForecastDays
	}
	if forecastDays > MaxForecastDays {
		forecastDays = MaxForecastDays
	}

	series, err := aggregating.BuildDailySeries(records)
	if err != nil {
		return nil, err
	}

	methods := []struct {
		name string
		run  func() *domain.MethodForecast
	}{
		{"linear_trend", func() *domain.MethodForecast { return linearTrendForecast(series, forecastDays) }},
		{"moving_average", func() *domain.MethodForecast { return movingAverageForecast(series, forecastDays) }},
		{"seasonal", func() *domain.MethodForecast { return seasonalForecast(series, forecastDays) }},
		{"exponential", func() *domain.MethodForecast { return exponentialForecast(series, forecastDays) }},
	}

	candidates := make([]*domain.MethodForecast, 0, len(methods))
	for _, method := range methods {
		forecast, err := runMethod(method.name, method.run)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"method": method.name,
				"error":  err.Error(),
			}).Error("forecasting: method failed, excluding from selection")
			continue
		}
		if forecast != nil {
			candidates = append(candidates, forecast)
		}
	}

	if len(candidates) == 0 {
		return nil, errors.Wrap(domain.ErrAnalysisFailed, "previsão de vendas")
	}

	revenues := aggregating.Revenues(series)
	historicalMean := utils.Mean(revenues)

	best := selectBest(candidates, historicalMean)

	alternatives := make([]*domain.MethodForecast, 0, len(candidates)-1)
	for _, candidate := range candidates {
		if candidate != best {
			alternatives = append(alternatives, candidate)
		}
	}

	score := confidenceScore(best, revenues)

	return &domain.ForecastResult{
		Best:            best,
		Alternatives:    alternatives,
		ConfidenceScore: score,
		ConfidenceLevel: confidenceLevel(score),
		HistoricalDays:  len(series),
		ForecastDays:    forecastDays,
		Insights:        buildInsights(best, historicalMean),
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// runMethod isola um método de previsão: pânico numérico vira erro de
// computação, logado e excluído da seleção
func runMethod(name string, run func() *domain.MethodForecast) (forecast *domain.MethodForecast, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("falha de computação no método %s: %v", name, r)
		}
	}()

	return run(), nil
}

// selectBest escolhe o candidato com menor MAE efetivo. O MAE é dobrado
// quando a média diária prevista foge da razão aceitável com o histórico.
func selectBest(candidates []*domain.MethodForecast, historicalMean float64) *domain.MethodForecast {
	var best *domain.MethodForecast
	bestMAE := 0.0

	for _, candidate := range candidates {
		effectiveMAE := candidate.Performance.MAE

		if historicalMean > 0 {
			ratio := candidate.AverageDaily / historicalMean
			if ratio > extremeRatioUpper || ratio < extremeRatioLower {
				effectiveMAE *= extremeMAEPenalty
			}
		}

		if best == nil || effectiveMAE < bestMAE {
			best = candidate
			bestMAE = effectiveMAE
		}
	}

	return best
}

// confidenceScore compõe o score 0-100 de confiança a partir de quatro
// fatores ponderados: acurácia do ajuste, volume de dados, variabilidade
// da receita e um bônus de confiabilidade do método.
func confidenceScore(best *domain.MethodForecast, revenues []float64) int {
	historicalMean := utils.Mean(revenues)

	// Acurácia (10-40 pontos): razão MAE/média histórica
	accuracy := 10
	if historicalMean > 0 {
		errorRatio := best.Performance.MAE / historicalMean
		switch {
		case errorRatio <= 0.1:
			accuracy = 40
		case errorRatio <= 0.2:
			accuracy = 30
		case errorRatio <= 0.35:
			accuracy = 20
		}
	}

	// Volume de dados (10-30 pontos): limiares em 7/14/30 dias
	volume := 10
	switch {
	case len(revenues) >= 30:
		volume = 30
	case len(revenues) >= 14:
		volume = 20
	}

	// Variabilidade (10-20 pontos): coeficiente de variação
	variability := 10
	if historicalMean > 0 {
		cv := utils.StdDev(revenues) / historicalMean
		switch {
		case cv <= 0.3:
			variability = 20
		case cv <= 0.6:
			variability = 15
		}
	}

	// Bônus de confiabilidade do método (+10)
	reliability := 0
	if best.Method == domain.MethodLinearTrend || best.Method == domain.MethodSeasonal {
		reliability = 10
	}

	return accuracy + volume + variability + reliability
}

// confidenceLevel mapeia o score composto para o nível qualitativo
func confidenceLevel(score int) string {
	switch {
	case score >= 80:
		return domain.ConfidenceHigh
	case score >= 60:
		return domain.ConfidenceMedium
	case score >= 40:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceVeryLow
	}
}

// buildInsights gera os textos curtos de leitura da previsão
func buildInsights(best *domain.MethodForecast, historicalMean float64) []string {
	insights := make([]string, 0, 3)

	switch best.Trend {
	case domain.TrendIncreasing:
		insights = append(insights, "A tendência de vendas aponta para crescimento no período previsto")
	case domain.TrendDecreasing:
		insights = append(insights, "A tendência de vendas aponta para queda no período previsto")
	default:
		insights = append(insights, "As vendas devem se manter estáveis no período previsto")
	}

	insights = append(insights, fmt.Sprintf(
		"Receita projetada de R$ %.2f (média de R$ %.2f por dia)",
		best.TotalForecast, best.AverageDaily,
	))

	if historicalMean > 0 {
		accuracy := (1 - best.Performance.MAE/historicalMean) * 100
		if accuracy < 0 {
			accuracy = 0
		}
		insights = append(insights, fmt.Sprintf(
			"Acurácia estimada do modelo: %.0f%% sobre o histórico", accuracy,
		))
	}

	return insights
}
