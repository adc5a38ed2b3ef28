package detecting

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"github.com/vfg2006/sales-analytics-api/internal/usecases/aggregating"
	"github.com/vfg2006/sales-analytics-api/pkg/utils"
)

// Parâmetros estatísticos dos sub-detectores
const (
	zScoreThreshold   = 2.0
	iqrFactor         = 1.5
	minProductSales   = 3
	minProducts       = 2
	minWeekdays       = 3
	minTrendPoints    = 10
	trendRecentDiffs  = 3

	// Divisores de confiança por detector (entre 3.0 e 4.0)
	volumeConfidenceDivisor  = 3.0
	revenueConfidenceDivisor = 3.5
	productConfidenceDivisor = 3.0
	patternConfidenceDivisor = 4.0
	trendConfidenceDivisor   = 3.0
)

var weekdayNames = []string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

// anomalyID deriva um ID determinístico (UUIDv5) do tipo do detector,
// usuário e das partes que identificam a observação. Reexecuções sobre
// janelas sobrepostas geram o mesmo ID e portanto fazem upsert.
func anomalyID(userID string, anomalyType domain.AnomalyType, parts ...string) string {
	seed := strings.Join(append([]string{string(anomalyType), userID}, parts...), "|")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// detectVolumeAnomalies aplica z-score sobre a contagem diária de transações.
// Dias abaixo da média viram sales_drop; acima, sales_spike.
func detectVolumeAnomalies(userID string, series []domain.DailyAggregate) []*domain.Anomaly {
	counts := aggregating.TransactionCounts(series)
	mean := utils.Mean(counts)
	std := utils.StdDev(counts)

	// Variância zero: grupo degenerado, nenhum ponto é anômalo
	if std == 0 {
		return nil
	}

	anomalies := make([]*domain.Anomaly, 0)
	for _, day := range series {
		z := (float64(day.TransactionCount) - mean) / std
		if math.Abs(z) < zScoreThreshold {
			continue
		}

		anomalyType := domain.AnomalySalesSpike
		impact := domain.ImpactPositive
		description := fmt.Sprintf(
			"Volume de vendas em %s subiu para %d transações (média: %.1f)",
			day.Date.Format("02/01/2006"), day.TransactionCount, mean,
		)
		if z < 0 {
			anomalyType = domain.AnomalySalesDrop
			impact = domain.ImpactNegative
			description = fmt.Sprintf(
				"Volume de vendas em %s caiu para %d transações (média: %.1f)",
				day.Date.Format("02/01/2006"), day.TransactionCount, mean,
			)
		}

		score := math.Abs(z)
		anomalies = append(anomalies, &domain.Anomaly{
			ID:             anomalyID(userID, anomalyType, day.Date.Format(time.DateOnly), "transaction_count"),
			UserID:         userID,
			Type:           anomalyType,
			Severity:       severityForScore(score),
			Date:           day.Date,
			Value:          float64(day.TransactionCount),
			ExpectedValue:  mean,
			DeviationScore: score,
			Impact:         impact,
			Confidence:     confidenceForScore(score, volumeConfidenceDivisor),
			Description:    description,
			Suggestions:    suggestionsFor(anomalyType, impact),
			Metadata: map[string]string{
				"metric":  "transaction_count",
				"z_score": formatFloat(z),
				"mean":    formatFloat(mean),
				"std":     formatFloat(std),
			},
		})
	}

	return anomalies
}

// detectRevenueAnomalies combina z-score e o teste IQR sobre a receita
// diária; basta um dos métodos disparar. Os métodos que dispararam ficam
// registrados nos metadados.
func detectRevenueAnomalies(userID string, series []domain.DailyAggregate) []*domain.Anomaly {
	revenues := aggregating.Revenues(series)
	mean := utils.Mean(revenues)
	std := utils.StdDev(revenues)

	q1 := utils.Percentile(revenues, 25)
	q3 := utils.Percentile(revenues, 75)
	iqr := q3 - q1
	lowerBound := q1 - iqrFactor*iqr
	upperBound := q3 + iqrFactor*iqr

	anomalies := make([]*domain.Anomaly, 0)
	for _, day := range series {
		methods := make([]string, 0, 2)

		z := 0.0
		if std > 0 {
			z = (day.Revenue - mean) / std
			if math.Abs(z) >= zScoreThreshold {
				methods = append(methods, "z_score")
			}
		}

		if iqr > 0 && (day.Revenue < lowerBound || day.Revenue > upperBound) {
			methods = append(methods, "iqr")
		}

		if len(methods) == 0 {
			continue
		}

		impact := domain.ImpactPositive
		if day.Revenue < mean {
			impact = domain.ImpactNegative
		}

		score := math.Abs(z)
		if score == 0 {
			// Disparo apenas pelo IQR em série de baixa variância:
			// usa a distância relativa ao limite como magnitude
			score = severityMediumThreshold
		}

		anomalies = append(anomalies, &domain.Anomaly{
			ID:             anomalyID(userID, domain.AnomalyRevenue, day.Date.Format(time.DateOnly), "revenue"),
			UserID:         userID,
			Type:           domain.AnomalyRevenue,
			Severity:       severityForScore(score),
			Date:           day.Date,
			Value:          day.Revenue,
			ExpectedValue:  mean,
			DeviationScore: score,
			Impact:         impact,
			Confidence:     confidenceForScore(score, revenueConfidenceDivisor),
			Description: fmt.Sprintf(
				"Receita de R$ %.2f em %s desviou do esperado (R$ %.2f)",
				day.Revenue, day.Date.Format("02/01/2006"), mean,
			),
			Suggestions: suggestionsFor(domain.AnomalyRevenue, impact),
			Metadata: map[string]string{
				"metric":      "revenue",
				"methods":     strings.Join(methods, ","),
				"z_score":     formatFloat(z),
				"mean":        formatFloat(mean),
				"std":         formatFloat(std),
				"iqr_lower":   formatFloat(lowerBound),
				"iqr_upper":   formatFloat(upperBound),
			},
		})
	}

	return anomalies
}

// productStats acumula as métricas de um produto no período
type productStats struct {
	name         string
	totalRevenue float64
	salesCount   int
	lastSale     time.Time
}

// detectProductAnomalies compara produtos entre si. Exige pelo menos dois
// produtos com três ou mais vendas cada; para cada métrica (receita total,
// número de vendas, valor médio por venda) aplica z-score entre produtos.
func detectProductAnomalies(userID string, records []*domain.SalesRecord) []*domain.Anomaly {
	statsByProduct := make(map[string]*productStats)
	for _, record := range records {
		stats, ok := statsByProduct[record.ProductName]
		if !ok {
			stats = &productStats{name: record.ProductName}
			statsByProduct[record.ProductName] = stats
		}

		stats.totalRevenue += record.TotalAmount
		stats.salesCount++
		if record.Date.After(stats.lastSale) {
			stats.lastSale = record.Date
		}
	}

	qualified := make([]*productStats, 0, len(statsByProduct))
	for _, stats := range statsByProduct {
		if stats.salesCount >= minProductSales {
			qualified = append(qualified, stats)
		}
	}

	if len(qualified) < minProducts {
		return nil
	}

	// Ordenação por nome para saída determinística
	sort.Slice(qualified, func(i, j int) bool {
		return qualified[i].name < qualified[j].name
	})

	metrics := map[string]func(*productStats) float64{
		"total_revenue":  func(s *productStats) float64 { return s.totalRevenue },
		"sales_count":    func(s *productStats) float64 { return float64(s.salesCount) },
		"avg_sale_value": func(s *productStats) float64 { return s.totalRevenue / float64(s.salesCount) },
	}

	metricNames := []string{"total_revenue", "sales_count", "avg_sale_value"}

	anomalies := make([]*domain.Anomaly, 0)
	for _, metricName := range metricNames {
		extract := metrics[metricName]

		values := make([]float64, len(qualified))
		for i, stats := range qualified {
			values[i] = extract(stats)
		}

		mean := utils.Mean(values)
		std := utils.StdDev(values)
		if std == 0 {
			continue
		}

		for i, stats := range qualified {
			z := (values[i] - mean) / std
			if math.Abs(z) < zScoreThreshold {
				continue
			}

			impact := domain.ImpactPositive
			performance := "acima"
			if z < 0 {
				impact = domain.ImpactNegative
				performance = "abaixo"
			}

			score := math.Abs(z)
			anomalies = append(anomalies, &domain.Anomaly{
				ID:             anomalyID(userID, domain.AnomalyProduct, stats.name, metricName),
				UserID:         userID,
				Type:           domain.AnomalyProduct,
				Severity:       severityForScore(score),
				Date:           stats.lastSale,
				Value:          values[i],
				ExpectedValue:  mean,
				DeviationScore: score,
				Impact:         impact,
				Confidence:     confidenceForScore(score, productConfidenceDivisor),
				Description: fmt.Sprintf(
					"Produto '%s' está %s dos demais na métrica %s",
					stats.name, performance, metricName,
				),
				Suggestions: suggestionsFor(domain.AnomalyProduct, impact),
				Metadata: map[string]string{
					"product_name": stats.name,
					"metric":       metricName,
					"z_score":      formatFloat(z),
					"mean":         formatFloat(mean),
					"std":          formatFloat(std),
				},
			})
		}
	}

	return anomalies
}

// weekdayStats acumula as métricas de um dia da semana
type weekdayStats struct {
	weekday    int
	salesCount float64
	revenue    float64
	lastDate   time.Time
}

// detectPatternAnomalies procura dias da semana que fogem do padrão dos
// demais. Anomalias de padrão são estruturais, não agudas: a severidade é
// fixada em medium independentemente da magnitude do z.
func detectPatternAnomalies(userID string, series []domain.DailyAggregate) []*domain.Anomaly {
	statsByWeekday := make(map[int]*weekdayStats)
	for _, day := range series {
		stats, ok := statsByWeekday[day.DayOfWeek]
		if !ok {
			stats = &weekdayStats{weekday: day.DayOfWeek}
			statsByWeekday[day.DayOfWeek] = stats
		}

		stats.salesCount += float64(day.TransactionCount)
		stats.revenue += day.Revenue
		if day.Date.After(stats.lastDate) {
			stats.lastDate = day.Date
		}
	}

	if len(statsByWeekday) < minWeekdays {
		return nil
	}

	weekdays := make([]*weekdayStats, 0, len(statsByWeekday))
	for _, stats := range statsByWeekday {
		weekdays = append(weekdays, stats)
	}
	sort.Slice(weekdays, func(i, j int) bool {
		return weekdays[i].weekday < weekdays[j].weekday
	})

	metrics := []struct {
		name    string
		extract func(*weekdayStats) float64
	}{
		{"sales_count", func(s *weekdayStats) float64 { return s.salesCount }},
		{"total_revenue", func(s *weekdayStats) float64 { return s.revenue }},
	}

	anomalies := make([]*domain.Anomaly, 0)
	for _, metric := range metrics {
		values := make([]float64, len(weekdays))
		for i, stats := range weekdays {
			values[i] = metric.extract(stats)
		}

		mean := utils.Mean(values)
		std := utils.StdDev(values)
		if std == 0 {
			continue
		}

		for i, stats := range weekdays {
			z := (values[i] - mean) / std
			if math.Abs(z) < zScoreThreshold {
				continue
			}

			impact := domain.ImpactPositive
			if z < 0 {
				impact = domain.ImpactNegative
			}

			dayName := weekdayNames[stats.weekday]
			score := math.Abs(z)
			anomalies = append(anomalies, &domain.Anomaly{
				ID:             anomalyID(userID, domain.AnomalyPatternBreak, dayName, metric.name),
				UserID:         userID,
				Type:           domain.AnomalyPatternBreak,
				Severity:       domain.SeverityMedium,
				Date:           stats.lastDate,
				Value:          values[i],
				ExpectedValue:  mean,
				DeviationScore: score,
				Impact:         impact,
				Confidence:     confidenceForScore(score, patternConfidenceDivisor),
				Description: fmt.Sprintf(
					"O padrão de %s fugiu do comportamento dos outros dias da semana (%s)",
					dayName, metric.name,
				),
				Suggestions: suggestionsFor(domain.AnomalyPatternBreak, impact),
				Metadata: map[string]string{
					"day_name": dayName,
					"metric":   metric.name,
					"z_score":  formatFloat(z),
					"mean":     formatFloat(mean),
					"std":      formatFloat(std),
				},
			})
		}
	}

	return anomalies
}

// detectTrendReversal procura inversões de sinal nas últimas diferenças da
// média móvel da receita (padrões +,-,- ou -,+,+). Exige pelo menos 10
// pontos diários.
func detectTrendReversal(userID string, series []domain.DailyAggregate) []*domain.Anomaly {
	if len(series) < minTrendPoints {
		return nil
	}

	window := len(series) / 3
	if window > 7 {
		window = 7
	}
	if window < 1 {
		window = 1
	}

	revenues := aggregating.Revenues(series)
	movingAvg := rollingMean(revenues, window)

	diffs := make([]float64, 0, len(movingAvg)-1)
	for i := 1; i < len(movingAvg); i++ {
		diffs = append(diffs, movingAvg[i]-movingAvg[i-1])
	}

	if len(diffs) < trendRecentDiffs {
		return nil
	}

	recent := diffs[len(diffs)-trendRecentDiffs:]
	if !isSignFlip(recent) {
		return nil
	}

	diffStd := utils.StdDev(diffs)
	if diffStd == 0 {
		return nil
	}

	lastDiff := recent[len(recent)-1]
	score := math.Abs(lastDiff) / diffStd

	impact := domain.ImpactPositive
	direction := "alta"
	if lastDiff < 0 {
		impact = domain.ImpactNegative
		direction = "baixa"
	}

	lastDay := series[len(series)-1]

	return []*domain.Anomaly{{
		ID:             anomalyID(userID, domain.AnomalyTrendReversal, lastDay.Date.Format(time.DateOnly), "revenue_trend"),
		UserID:         userID,
		Type:           domain.AnomalyTrendReversal,
		Severity:       severityForScore(score),
		Date:           lastDay.Date,
		Value:          movingAvg[len(movingAvg)-1],
		ExpectedValue:  movingAvg[len(movingAvg)-1] - lastDiff,
		DeviationScore: score,
		Impact:         impact,
		Confidence:     confidenceForScore(score, trendConfidenceDivisor),
		Description: fmt.Sprintf(
			"A tendência de receita inverteu para %s nos últimos dias", direction,
		),
		Suggestions: suggestionsFor(domain.AnomalyTrendReversal, impact),
		Metadata: map[string]string{
			"trend_direction": direction,
			"window":          strconv.Itoa(window),
			"last_diff":       formatFloat(lastDiff),
			"diff_std":        formatFloat(diffStd),
		},
	}}
}

// rollingMean calcula a média móvel com janelas parciais no início
func rollingMean(values []float64, window int) []float64 {
	result := make([]float64, len(values))
	sum := 0.0

	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}

		n := i + 1
		if n > window {
			n = window
		}
		result[i] = sum / float64(n)
	}

	return result
}

// isSignFlip verifica os padrões de inversão +,-,- ou -,+,+
func isSignFlip(diffs []float64) bool {
	if len(diffs) != trendRecentDiffs {
		return false
	}

	first, second, third := diffs[0], diffs[1], diffs[2]

	upThenDown := first > 0 && second < 0 && third < 0
	downThenUp := first < 0 && second > 0 && third > 0

	return upThenDown || downThenUp
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
