package forecasting

import (
	"math"
	"time"

	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"github.com/vfg2006/sales-analytics-api/internal/usecases/aggregating"
	"github.com/vfg2006/sales-analytics-api/pkg/utils"
)

const (
	movingAverageMaxWindow = 7
	seasonalMinPoints      = 14
	smoothingAlpha         = 0.3

	// Inclinação mínima (R$/dia) para considerar a tendência não-estável
	slopeStableThreshold = 0.01
)

// linearTrendForecast ajusta uma reta por mínimos quadrados sobre o índice
// do dia e extrapola o horizonte pedido. Previsões negativas são cortadas
// em zero.
func linearTrendForecast(series []domain.DailyAggregate, forecastDays int) *domain.MethodForecast {
	n := len(series)
	if n < 2 {
		return nil
	}

	revenues := aggregating.Revenues(series)

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range revenues {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denominator := float64(n)*sumXX - sumX*sumX
	if denominator == 0 {
		return nil
	}

	slope := (float64(n)*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / float64(n)

	fitted := make([]float64, n)
	for i := range fitted {
		fitted[i] = intercept + slope*float64(i)
	}

	predictions := make([]float64, forecastDays)
	for i := range predictions {
		predicted := intercept + slope*float64(n+i)
		predictions[i] = clampNonNegative(predicted)
	}

	trend := domain.TrendStable
	if slope > slopeStableThreshold {
		trend = domain.TrendIncreasing
	} else if slope < -slopeStableThreshold {
		trend = domain.TrendDecreasing
	}

	return buildMethodForecast(domain.MethodLinearTrend, series, predictions, fitted, revenues, trend)
}

// movingAverageForecast projeta a média dos últimos dias como previsão
// constante. O desempenho é medido por comparação rolante dentro da amostra.
func movingAverageForecast(series []domain.DailyAggregate, forecastDays int) *domain.MethodForecast {
	n := len(series)
	if n == 0 {
		return nil
	}

	window := movingAverageMaxWindow
	if n < window {
		window = n
	}

	revenues := aggregating.Revenues(series)
	lastWindowMean := utils.Mean(revenues[n-window:])

	predictions := make([]float64, forecastDays)
	for i := range predictions {
		predictions[i] = clampNonNegative(lastWindowMean)
	}

	// Comparação rolante: prevê cada ponto com a média da janela anterior
	var fitted, actual []float64
	for i := window; i < n; i++ {
		fitted = append(fitted, utils.Mean(revenues[i-window:i]))
		actual = append(actual, revenues[i])
	}

	if len(fitted) == 0 {
		// Série do tamanho exato da janela: mede o desvio em torno da média
		fitted = make([]float64, n)
		for i := range fitted {
			fitted[i] = lastWindowMean
		}
		actual = revenues
	}

	return buildMethodForecast(domain.MethodMovingAverage, series, predictions, fitted, actual, domain.TrendStable)
}

// seasonalForecast usa a média histórica por dia da semana corrigida por
// uma razão de tendência (média dos últimos 7 dias sobre os primeiros 7,
// limitada a [0.5, 2.0]). Exige pelo menos 14 pontos.
func seasonalForecast(series []domain.DailyAggregate, forecastDays int) *domain.MethodForecast {
	n := len(series)
	if n < seasonalMinPoints {
		return nil
	}

	revenues := aggregating.Revenues(series)
	overallMean := utils.Mean(revenues)

	weekdaySums := make(map[int]float64)
	weekdayCounts := make(map[int]int)
	for _, day := range series {
		weekdaySums[day.DayOfWeek] += day.Revenue
		weekdayCounts[day.DayOfWeek]++
	}

	weekdayMean := func(weekday int) float64 {
		if count := weekdayCounts[weekday]; count > 0 {
			return weekdaySums[weekday] / float64(count)
		}
		return overallMean
	}

	firstWeekMean := utils.Mean(revenues[:7])
	lastWeekMean := utils.Mean(revenues[n-7:])

	trendRatio := 1.0
	if firstWeekMean > 0 {
		trendRatio = lastWeekMean / firstWeekMean
	}
	if trendRatio < 0.5 {
		trendRatio = 0.5
	}
	if trendRatio > 2.0 {
		trendRatio = 2.0
	}

	lastDate := series[n-1].Date
	predictions := make([]float64, forecastDays)
	for i := range predictions {
		forecastDate := lastDate.AddDate(0, 0, i+1)
		predicted := weekdayMean(int(forecastDate.Weekday())) * trendRatio
		predictions[i] = clampNonNegative(predicted)
	}

	fitted := make([]float64, n)
	for i, day := range series {
		fitted[i] = weekdayMean(day.DayOfWeek)
	}

	trend := domain.TrendStable
	if trendRatio > 1.05 {
		trend = domain.TrendIncreasing
	} else if trendRatio < 0.95 {
		trend = domain.TrendDecreasing
	}

	return buildMethodForecast(domain.MethodSeasonal, series, predictions, fitted, revenues, trend)
}

// exponentialForecast aplica suavização exponencial simples com alfa fixo
// e mantém o último valor suavizado como previsão constante.
func exponentialForecast(series []domain.DailyAggregate, forecastDays int) *domain.MethodForecast {
	n := len(series)
	if n == 0 {
		return nil
	}

	revenues := aggregating.Revenues(series)

	// A previsão de um passo à frente em t é o valor suavizado em t-1
	fitted := make([]float64, 0, n-1)
	actual := make([]float64, 0, n-1)

	smoothed := revenues[0]
	for i := 1; i < n; i++ {
		fitted = append(fitted, smoothed)
		actual = append(actual, revenues[i])
		smoothed = smoothingAlpha*revenues[i] + (1-smoothingAlpha)*smoothed
	}

	predictions := make([]float64, forecastDays)
	for i := range predictions {
		predictions[i] = clampNonNegative(smoothed)
	}

	if len(fitted) == 0 {
		fitted = []float64{smoothed}
		actual = revenues
	}

	return buildMethodForecast(domain.MethodExponential, series, predictions, fitted, actual, domain.TrendStable)
}

// buildMethodForecast monta a estrutura comum de saída de um método
func buildMethodForecast(
	method domain.ForecastMethod,
	series []domain.DailyAggregate,
	predictions []float64,
	fitted []float64,
	actual []float64,
	trend string,
) *domain.MethodForecast {
	lastDate := series[len(series)-1].Date

	dates := make([]time.Time, len(predictions))
	total := 0.0
	for i, predicted := range predictions {
		dates[i] = lastDate.AddDate(0, 0, i+1)
		total += predicted
	}

	averageDaily := 0.0
	if len(predictions) > 0 {
		averageDaily = total / float64(len(predictions))
	}

	mae, rmse := fitErrors(fitted, actual)

	return &domain.MethodForecast{
		Method:        method,
		Predictions:   predictions,
		Dates:         dates,
		TotalForecast: total,
		AverageDaily:  averageDaily,
		Performance:   domain.ForecastPerformance{MAE: mae, RMSE: rmse},
		Trend:         trend,
	}
}

// fitErrors calcula MAE e RMSE entre valores ajustados e observados
func fitErrors(fitted, actual []float64) (float64, float64) {
	n := len(fitted)
	if n == 0 || n != len(actual) {
		return 0, 0
	}

	var sumAbs, sumSquares float64
	for i := range fitted {
		diff := actual[i] - fitted[i]
		sumAbs += math.Abs(diff)
		sumSquares += diff * diff
	}

	mae := sumAbs / float64(n)
	rmse := math.Sqrt(sumSquares / float64(n))

	return mae, rmse
}

func clampNonNegative(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}
