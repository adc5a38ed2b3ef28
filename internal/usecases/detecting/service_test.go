package detecting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"go.uber.org/mock/gomock"
)

// 01/01/2024 é uma segunda-feira
var seriesStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sale(day int, product string, amount float64, customer string) *domain.SalesRecord {
	return &domain.SalesRecord{
		ID:           "venda",
		UserID:       "user-1",
		Date:         seriesStart.AddDate(0, 0, day),
		ProductName:  product,
		Quantity:     1,
		UnitPrice:    amount,
		TotalAmount:  amount,
		CustomerName: customer,
	}
}

// uniformDays gera um dia com n transações de mesmo valor por `days` dias
func uniformDays(days, perDay int, amount float64) []*domain.SalesRecord {
	records := make([]*domain.SalesRecord, 0, days*perDay)
	for day := 0; day < days; day++ {
		for i := 0; i < perDay; i++ {
			records = append(records, sale(day, "Produto A", amount, ""))
		}
	}
	return records
}

func anomaliesOfType(anomalies []*domain.Anomaly, anomalyType domain.AnomalyType) []*domain.Anomaly {
	filtered := make([]*domain.Anomaly, 0)
	for _, anomaly := range anomalies {
		if anomaly.Type == anomalyType {
			filtered = append(filtered, anomaly)
		}
	}
	return filtered
}

func TestDetectAll_DadosInsuficientes(t *testing.T) {
	service := NewService(nil)

	anomalies, err := service.DetectAll("user-1", uniformDays(5, 1, 100), time.Now().UTC())

	require.Error(t, err)
	assert.Nil(t, anomalies)
	assert.True(t, domain.IsInsufficientData(err))
}

func TestDetectAll_SerieUniformeSemAnomalias(t *testing.T) {
	// Série degenerada: variância zero em todas as métricas. Nenhum ponto
	// é anômalo e isso é distinto de dados insuficientes.
	service := NewService(nil)

	anomalies, err := service.DetectAll("user-1", uniformDays(14, 1, 100), time.Now().UTC())

	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestDetectAll_QuedaDeVolume(t *testing.T) {
	service := NewService(nil)

	// 29 dias com 10 transações e um dia com apenas 1
	records := uniformDays(30, 10, 10)
	records = records[:len(records)-9] // último dia fica com 1 transação

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)

	drops := anomaliesOfType(anomalies, domain.AnomalySalesDrop)
	require.Len(t, drops, 1)

	drop := drops[0]
	assert.Equal(t, domain.ImpactNegative, drop.Impact)
	assert.Equal(t, 1.0, drop.Value)
	assert.InDelta(t, 9.7, drop.ExpectedValue, 0.001)
	assert.Greater(t, drop.DeviationScore, 4.0)
	assert.Equal(t, domain.SeverityCritical, drop.Severity)
	assert.Equal(t, domain.AnomalyStatusNew, drop.Status)
	assert.NotEmpty(t, drop.Suggestions)
	assert.Equal(t, "transaction_count", drop.Metadata["metric"])
}

func TestDetectAll_PicoDeVolume(t *testing.T) {
	service := NewService(nil)

	// 29 dias com 2 transações e um dia com 20
	records := uniformDays(29, 2, 10)
	for i := 0; i < 20; i++ {
		records = append(records, sale(29, "Produto A", 10, ""))
	}

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)

	spikes := anomaliesOfType(anomalies, domain.AnomalySalesSpike)
	require.Len(t, spikes, 1)
	assert.Equal(t, domain.ImpactPositive, spikes[0].Impact)
	assert.Equal(t, 20.0, spikes[0].Value)
}

func TestDetectAll_AnomaliaDeReceita(t *testing.T) {
	service := NewService(nil)

	// 10 dias com receita de 100, exceto o oitavo dia com 20. Média 92,
	// desvio populacional 24: z exato de -3.0 no dia da queda. Os quartis
	// colapsam em 100 (IQR zero), então só o z-score dispara.
	records := make([]*domain.SalesRecord, 0, 10)
	for day := 0; day < 10; day++ {
		amount := 100.0
		if day == 7 {
			amount = 20.0
		}
		records = append(records, sale(day, "Produto A", amount, ""))
	}

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)

	revenueAnomalies := anomaliesOfType(anomalies, domain.AnomalyRevenue)
	require.Len(t, revenueAnomalies, 1)

	anomaly := revenueAnomalies[0]
	assert.Equal(t, seriesStart.AddDate(0, 0, 7), anomaly.Date)
	assert.Equal(t, 20.0, anomaly.Value)
	assert.InDelta(t, 92.0, anomaly.ExpectedValue, 0.001)
	assert.InDelta(t, 3.0, anomaly.DeviationScore, 0.001)
	assert.Equal(t, domain.ImpactNegative, anomaly.Impact)
	assert.Equal(t, domain.SeverityHigh, anomaly.Severity)
	assert.Equal(t, "revenue", anomaly.Metadata["metric"])
	assert.Equal(t, "z_score", anomaly.Metadata["methods"])
}

func TestDetectAll_ReceitaForaDoIQR(t *testing.T) {
	service := NewService(nil)

	// Receita alternando 100/110 com um pico de 300 no último dia: a
	// variância de base mantém o IQR em 10 (limites 85-125), então o pico
	// dispara pelos dois métodos
	records := make([]*domain.SalesRecord, 0, 14)
	for day := 0; day < 14; day++ {
		amount := 100.0
		if day%2 == 1 {
			amount = 110.0
		}
		if day == 13 {
			amount = 300.0
		}
		records = append(records, sale(day, "Produto A", amount, ""))
	}

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)

	revenueAnomalies := anomaliesOfType(anomalies, domain.AnomalyRevenue)
	require.Len(t, revenueAnomalies, 1)

	anomaly := revenueAnomalies[0]
	assert.Equal(t, 300.0, anomaly.Value)
	assert.Equal(t, domain.ImpactPositive, anomaly.Impact)
	assert.Equal(t, "z_score,iqr", anomaly.Metadata["methods"])
	assert.InDelta(t, 3.59, anomaly.DeviationScore, 0.01)
}

func TestDetectAll_ConfiancaLimitada(t *testing.T) {
	service := NewService(nil)

	records := uniformDays(30, 10, 10)
	records = records[:len(records)-9]

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)
	require.NotEmpty(t, anomalies)

	for _, anomaly := range anomalies {
		assert.LessOrEqual(t, anomaly.Confidence, confidenceCap)
		assert.Greater(t, anomaly.Confidence, 0.0)
	}
}

func TestDetectAll_IDsDeterministicos(t *testing.T) {
	// Reexecutar sobre os mesmos registros gera exatamente os mesmos IDs,
	// o que faz janelas sobrepostas convergirem por upsert
	service := NewService(nil)

	records := uniformDays(30, 10, 10)
	records = records[:len(records)-9]

	first, err := service.DetectAll("user-1", records, time.Now().UTC())
	require.NoError(t, err)

	second, err := service.DetectAll("user-1", records, time.Now().UTC())
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestDetectAll_IDsMudamPorUsuario(t *testing.T) {
	service := NewService(nil)

	records := uniformDays(30, 10, 10)
	records = records[:len(records)-9]

	userA, err := service.DetectAll("user-a", records, time.Now().UTC())
	require.NoError(t, err)
	userB, err := service.DetectAll("user-b", records, time.Now().UTC())
	require.NoError(t, err)

	require.NotEmpty(t, userA)
	require.Equal(t, len(userA), len(userB))
	for i := range userA {
		assert.NotEqual(t, userA[i].ID, userB[i].ID)
	}
}

func TestDetectAll_AnomaliaDeProduto(t *testing.T) {
	service := NewService(nil)

	// 6 produtos qualificados (3 vendas cada); um deles com receita muito
	// acima dos demais. Espalhados por 9 dias para a série ser analisável.
	products := []string{"Caneta", "Caderno", "Lápis", "Borracha", "Régua"}
	records := make([]*domain.SalesRecord, 0)
	for i, product := range products {
		for j := 0; j < 3; j++ {
			records = append(records, sale((i*2+j)%9, product, 10, ""))
		}
	}
	for j := 0; j < 3; j++ {
		records = append(records, sale(j*3, "Mochila", 200, ""))
	}

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)

	productAnomalies := anomaliesOfType(anomalies, domain.AnomalyProduct)
	require.NotEmpty(t, productAnomalies)

	for _, anomaly := range productAnomalies {
		assert.Equal(t, "Mochila", anomaly.Metadata["product_name"])
		assert.Equal(t, domain.ImpactPositive, anomaly.Impact)
	}
}

func TestDetectAll_MenosDeDoisProdutosQualificados(t *testing.T) {
	// Um único produto com muitas vendas não gera anomalia de produto:
	// a comparação exige pelo menos dois produtos com 3+ vendas
	series := uniformDays(14, 2, 100)

	anomalies := detectProductAnomalies("user-1", series)

	assert.Empty(t, anomalies)
}

func TestDetectAll_QuebraDePadraoSemanal(t *testing.T) {
	service := NewService(nil)

	// 3 semanas: receita de 100 por dia, exceto segundas-feiras com 1000
	records := make([]*domain.SalesRecord, 0)
	for day := 0; day < 21; day++ {
		amount := 100.0
		if seriesStart.AddDate(0, 0, day).Weekday() == time.Monday {
			amount = 1000.0
		}
		records = append(records, sale(day, "Produto A", amount, ""))
	}

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)

	patterns := anomaliesOfType(anomalies, domain.AnomalyPatternBreak)
	require.NotEmpty(t, patterns)

	for _, anomaly := range patterns {
		// Quebras de padrão são estruturais: severidade fixa em medium
		assert.Equal(t, domain.SeverityMedium, anomaly.Severity)
		assert.Equal(t, "segunda-feira", anomaly.Metadata["day_name"])
	}
}

func TestDetectAll_ReversaoDeTendencia(t *testing.T) {
	service := NewService(nil)

	// 7 dias estáveis, um pico e dois dias em queda: o sinal das últimas
	// diferenças da média móvel vira de positivo para negativo
	amounts := []float64{100, 100, 100, 100, 100, 100, 100, 200, 50, 50}
	records := make([]*domain.SalesRecord, 0, len(amounts))
	for day, amount := range amounts {
		records = append(records, sale(day, "Produto A", amount, ""))
	}

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)

	reversals := anomaliesOfType(anomalies, domain.AnomalyTrendReversal)
	require.Len(t, reversals, 1)

	reversal := reversals[0]
	assert.Equal(t, domain.ImpactNegative, reversal.Impact)
	assert.Equal(t, "baixa", reversal.Metadata["trend_direction"])
}

func TestDetectAll_OrdenacaoPorSeveridadeEData(t *testing.T) {
	service := NewService(nil)

	// Fixture rica: queda de volume + padrão semanal quebrado
	records := make([]*domain.SalesRecord, 0)
	for day := 0; day < 28; day++ {
		perDay := 10
		if day == 20 {
			perDay = 1
		}
		amount := 10.0
		if seriesStart.AddDate(0, 0, day).Weekday() == time.Saturday {
			amount = 40.0
		}
		for i := 0; i < perDay; i++ {
			records = append(records, sale(day, "Produto A", amount, ""))
		}
	}

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)
	require.NotEmpty(t, anomalies)

	for i := 1; i < len(anomalies); i++ {
		previous := domain.SeverityRank(anomalies[i-1].Severity)
		current := domain.SeverityRank(anomalies[i].Severity)
		assert.GreaterOrEqual(t, previous, current)

		if previous == current {
			assert.False(t, anomalies[i].Date.After(anomalies[i-1].Date))
		}
	}
}

func TestDetectAll_PersisteNoAnomalyStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
	service := NewService(anomalyRepo)

	records := uniformDays(30, 10, 10)
	records = records[:len(records)-9]

	anomalyRepo.EXPECT().
		SaveOrUpdate(gomock.Any()).
		Return(nil).
		MinTimes(1)

	anomalies, err := service.DetectAll("user-1", records, time.Now().UTC())

	require.NoError(t, err)
	assert.NotEmpty(t, anomalies)
}

func TestSeverityForScore(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected domain.AnomalySeverity
	}{
		{"Abaixo do limiar - low", 1.9, domain.SeverityLow},
		{"No limiar de medium", 2.0, domain.SeverityMedium},
		{"Entre medium e high", 2.9, domain.SeverityMedium},
		{"No limiar de high", 3.0, domain.SeverityHigh},
		{"No limiar de critical", 4.0, domain.SeverityCritical},
		{"Muito acima do limiar", 10.0, domain.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, severityForScore(tt.score))
		})
	}
}

func TestConfidenceForScore(t *testing.T) {
	assert.InDelta(t, 0.5, confidenceForScore(1.5, 3.0), 0.001)
	assert.InDelta(t, 0.95, confidenceForScore(10.0, 3.0), 0.001)
	assert.InDelta(t, 0.5, confidenceForScore(2.0, 4.0), 0.001)
}

func TestSuggestionsDeterministicas(t *testing.T) {
	first := suggestionsFor(domain.AnomalySalesDrop, domain.ImpactNegative)
	second := suggestionsFor(domain.AnomalySalesDrop, domain.ImpactNegative)

	require.NotEmpty(t, first)
	assert.LessOrEqual(t, len(first), 4)
	assert.Equal(t, first, second)

	negative := suggestionsFor(domain.AnomalyRevenue, domain.ImpactNegative)
	positive := suggestionsFor(domain.AnomalyRevenue, domain.ImpactPositive)
	assert.NotEqual(t, negative, positive)
}

func TestIsSignFlip(t *testing.T) {
	assert.True(t, isSignFlip([]float64{5, -3, -2}))
	assert.True(t, isSignFlip([]float64{-5, 3, 2}))
	assert.False(t, isSignFlip([]float64{5, 3, -2}))
	assert.False(t, isSignFlip([]float64{5, 3, 2}))
	assert.False(t, isSignFlip([]float64{-5, -3, -2}))
	assert.False(t, isSignFlip([]float64{5, -3}))
}

func TestRollingMean(t *testing.T) {
	result := rollingMean([]float64{10, 20, 30, 40}, 2)

	require.Len(t, result, 4)
	assert.InDelta(t, 10.0, result[0], 0.001)
	assert.InDelta(t, 15.0, result[1], 0.001)
	assert.InDelta(t, 25.0, result[2], 0.001)
	assert.InDelta(t, 35.0, result[3], 0.001)
}
