package aggregating

import (
	"sort"
	"time"

	"github.com/vfg2006/sales-analytics-api/internal/domain"
)

// MinDistinctDates é o mínimo de datas distintas com vendas para que a
// série diária seja considerada analisável
const MinDistinctDates = 7

// BuildDailySeries transforma registros brutos de vendas na série diária
// compartilhada pelo detector de anomalias e pelo motor de previsão.
// A série é calculada uma única vez por chamada e reutilizada; nunca
// recalculada por sub-detector.
func BuildDailySeries(records []*domain.SalesRecord) ([]domain.DailyAggregate, error) {
	byDate := make(map[time.Time]*domain.DailyAggregate)

	for _, record := range records {
		day := truncateToDay(record.Date)
		aggregate, ok := byDate[day]
		if !ok {
			aggregate = &domain.DailyAggregate{Date: day}
			byDate[day] = aggregate
		}

		aggregate.Revenue += record.TotalAmount
		aggregate.Quantity += record.Quantity
		aggregate.TransactionCount++
	}

	if len(byDate) < MinDistinctDates {
		return nil, domain.NewInsufficientDataError("agregação diária", MinDistinctDates, len(byDate))
	}

	series := make([]domain.DailyAggregate, 0, len(byDate))
	for _, aggregate := range byDate {
		series = append(series, *aggregate)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	firstDate := series[0].Date
	for i := range series {
		_, week := series[i].Date.ISOWeek()
		series[i].DayOfWeek = int(series[i].Date.Weekday())
		series[i].WeekOfYear = week
		series[i].DaysSinceStart = int(series[i].Date.Sub(firstDate).Hours() / 24)
	}

	applyMovingAverages(series)

	return series, nil
}

// Revenues extrai a coluna de receita da série diária
func Revenues(series []domain.DailyAggregate) []float64 {
	revenues := make([]float64, len(series))
	for i, aggregate := range series {
		revenues[i] = aggregate.Revenue
	}
	return revenues
}

// TransactionCounts extrai a coluna de contagem de transações da série
func TransactionCounts(series []domain.DailyAggregate) []float64 {
	counts := make([]float64, len(series))
	for i, aggregate := range series {
		counts[i] = float64(aggregate.TransactionCount)
	}
	return counts
}

// applyMovingAverages calcula as médias móveis de 7 e 14 dias da receita.
// Janelas parciais no início da série são permitidas (média sobre os
// pontos existentes), igual ao min_periods=1 da implementação de referência.
func applyMovingAverages(series []domain.DailyAggregate) {
	var sum7, sum14 float64

	for i := range series {
		sum7 += series[i].Revenue
		sum14 += series[i].Revenue

		if i >= 7 {
			sum7 -= series[i-7].Revenue
		}
		if i >= 14 {
			sum14 -= series[i-14].Revenue
		}

		window7 := i + 1
		if window7 > 7 {
			window7 = 7
		}
		window14 := i + 1
		if window14 > 14 {
			window14 = 14
		}

		series[i].RevenueMA7 = sum7 / float64(window7)
		series[i].RevenueMA14 = sum14 / float64(window14)
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
