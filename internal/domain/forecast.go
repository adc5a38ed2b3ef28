package domain

import (
	"time"
)

// ForecastMethod identifica o método estatístico usado na previsão
type ForecastMethod string

const (
	MethodLinearTrend   ForecastMethod = "linear_trend"
	MethodMovingAverage ForecastMethod = "moving_average"
	MethodSeasonal      ForecastMethod = "seasonal"
	MethodExponential   ForecastMethod = "exponential"
)

// Rótulos de tendência derivados do sinal da inclinação da reta ajustada
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Níveis qualitativos de confiança da previsão
const (
	ConfidenceHigh    = "High"
	ConfidenceMedium  = "Medium"
	ConfidenceLow     = "Low"
	ConfidenceVeryLow = "Very Low"
)

// ForecastPerformance mede o ajuste do método contra o histórico
type ForecastPerformance struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// MethodForecast é a saída de um único método de previsão
type MethodForecast struct {
	Method       ForecastMethod      `json:"method"`
	Predictions  []float64           `json:"predictions"`
	Dates        []time.Time         `json:"dates"`
	TotalForecast float64            `json:"total_forecast"`
	AverageDaily float64             `json:"average_daily"`
	Performance  ForecastPerformance `json:"performance"`
	Trend        string              `json:"trend"`
}

// ForecastResult agrega a previsão vencedora, as alternativas para
// comparação e o score composto de confiança. Efêmero: calculado e
// devolvido, nunca persistido pelo núcleo.
type ForecastResult struct {
	Best            *MethodForecast   `json:"best"`
	Alternatives    []*MethodForecast `json:"alternatives"`
	ConfidenceScore int               `json:"confidence_score"`
	ConfidenceLevel string            `json:"confidence_level"`
	HistoricalDays  int               `json:"historical_days"`
	ForecastDays    int               `json:"forecast_days"`
	Insights        []string          `json:"insights"`
	GeneratedAt     time.Time         `json:"generated_at"`
}
