package predicting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"go.uber.org/mock/gomock"
)

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.Analysis{
			LookbackDays:        30,
			RecordCap:           2000,
			AlertWindowDays:     7,
			ChurnCacheDays:      7,
			ForecastDaysDefault: 30,
		},
	}
}

func purchase(customer string, daysAgo int, amount float64) *domain.SalesRecord {
	return &domain.SalesRecord{
		ID:           "venda",
		UserID:       "user-1",
		Date:         time.Now().UTC().AddDate(0, 0, -daysAgo),
		ProductName:  "Produto A",
		Quantity:     1,
		UnitPrice:    amount,
		TotalAmount:  amount,
		CustomerName: customer,
	}
}

// tenCustomers monta um histórico com exatamente 10 clientes: 8 ativos com
// uma compra recente, um inativo há 100 dias e um inativo há 65 dias
func tenCustomers() []*domain.SalesRecord {
	records := []*domain.SalesRecord{
		purchase("Rodrigo", 170, 80),
		purchase("Rodrigo", 100, 80),
		purchase("Zilda", 140, 80),
		purchase("Zilda", 65, 80),
	}

	active := []string{"Ana", "Bruno", "Carla", "Daniel", "Eduardo", "Fernanda", "Gustavo", "Helena"}
	for _, name := range active {
		records = append(records, purchase(name, 10, 50))
	}

	return records
}

func TestPredictChurn_PoucosClientes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
	service := NewService(salesRepo, testConfig())

	salesRepo.EXPECT().
		GetByUserAndPeriod("user-1", gomock.Any(), gomock.Any(), uint64(2000)).
		Return([]*domain.SalesRecord{
			purchase("Ana", 5, 100),
			purchase("Bruno", 10, 100),
			purchase("Carla", 15, 100),
		}, nil)

	report, err := service.PredictChurn("user-1")

	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, domain.IsInsufficientData(err))

	var insufficientErr *domain.InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, MinCustomers, insufficientErr.Needed)
	assert.Equal(t, 3, insufficientErr.Got)
}

func TestPredictChurn_RelatorioOrdenadoPorRisco(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
	service := NewService(salesRepo, testConfig())

	salesRepo.EXPECT().
		GetByUserAndPeriod("user-1", gomock.Any(), gomock.Any(), uint64(2000)).
		Return(tenCustomers(), nil)

	report, err := service.PredictChurn("user-1")

	require.NoError(t, err)
	assert.Equal(t, 10, report.TotalCustomers)
	assert.Equal(t, 2, report.HighRiskCustomers)
	assert.False(t, report.FromCache)
	require.Len(t, report.Predictions, 10)

	// Rodrigo: 100 dias inativo, frequência moderada -> probabilidade 0.9
	first := report.Predictions[0]
	assert.Equal(t, "Rodrigo", first.CustomerName)
	assert.InDelta(t, 0.9, first.ChurnProbability, 0.001)
	assert.Equal(t, domain.ChurnCritical, first.RiskLevel)
	assert.Equal(t, 3, first.DaysUntilChurn)
	assert.NotEmpty(t, first.KeyFactors)
	assert.NotEmpty(t, first.RetentionStrategies)

	// Zilda: 65 dias inativa -> 0.7
	second := report.Predictions[1]
	assert.Equal(t, "Zilda", second.CustomerName)
	assert.InDelta(t, 0.7, second.ChurnProbability, 0.001)
	assert.Equal(t, domain.ChurnHigh, second.RiskLevel)

	// Os demais empatam em probabilidade e saem em ordem alfabética
	assert.Equal(t, "Ana", report.Predictions[2].CustomerName)
	for i := 1; i < len(report.Predictions); i++ {
		assert.GreaterOrEqual(t,
			report.Predictions[i-1].ChurnProbability,
			report.Predictions[i].ChurnProbability,
		)
	}

	assert.Contains(t, report.Insights[0], "2 clientes em alto risco")
}

func TestPredictChurn_UsaCacheNaSegundaChamada(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
	service := NewService(salesRepo, testConfig())

	// O repositório é consultado uma única vez
	salesRepo.EXPECT().
		GetByUserAndPeriod("user-1", gomock.Any(), gomock.Any(), uint64(2000)).
		Return(tenCustomers(), nil).
		Times(1)

	fresh, err := service.PredictChurn("user-1")
	require.NoError(t, err)
	assert.False(t, fresh.FromCache)

	cached, err := service.PredictChurn("user-1")
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Equal(t, fresh.TotalCustomers, cached.TotalCustomers)
	assert.Equal(t, fresh.Predictions, cached.Predictions)
}

func TestPredictChurn_CachePorUsuario(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
	service := NewService(salesRepo, testConfig())

	salesRepo.EXPECT().
		GetByUserAndPeriod("user-1", gomock.Any(), gomock.Any(), uint64(2000)).
		Return(tenCustomers(), nil)
	salesRepo.EXPECT().
		GetByUserAndPeriod("user-2", gomock.Any(), gomock.Any(), uint64(2000)).
		Return(tenCustomers(), nil)

	_, err := service.PredictChurn("user-1")
	require.NoError(t, err)

	// Outro usuário não aproveita o cache do primeiro
	report, err := service.PredictChurn("user-2")
	require.NoError(t, err)
	assert.False(t, report.FromCache)
}

func TestPredictCustomer(t *testing.T) {
	tests := []struct {
		name                string
		features            domain.CustomerFeatures
		expectedProbability float64
		expectedRisk        domain.ChurnRisk
		expectedDays        int
	}{
		{
			name: "Cliente ativo e frequente - risco mínimo reduzido",
			features: domain.CustomerFeatures{
				CustomerName:          "Ana",
				DaysSinceLastPurchase: 10,
				PurchaseFrequency:     3,
				AvgOrderValue:         80,
				LifespanDays:          120,
			},
			expectedProbability: 0.07,
			expectedRisk:        domain.ChurnLow,
			expectedDays:        28,
		},
		{
			name: "Cliente ativo mas pouco frequente - risco aumentado",
			features: domain.CustomerFeatures{
				CustomerName:          "Bruno",
				DaysSinceLastPurchase: 10,
				PurchaseFrequency:     0.3,
				AvgOrderValue:         80,
				LifespanDays:          120,
			},
			expectedProbability: 0.13,
			expectedRisk:        domain.ChurnLow,
			expectedDays:        26,
		},
		{
			name: "Mais de 30 dias inativo - risco médio",
			features: domain.CustomerFeatures{
				CustomerName:          "Carla",
				DaysSinceLastPurchase: 35,
				PurchaseFrequency:     1,
				AvgOrderValue:         80,
				LifespanDays:          120,
			},
			expectedProbability: 0.4,
			expectedRisk:        domain.ChurnMedium,
			expectedDays:        18,
		},
		{
			name: "Mais de 60 dias inativo - risco alto",
			features: domain.CustomerFeatures{
				CustomerName:          "Daniel",
				DaysSinceLastPurchase: 65,
				PurchaseFrequency:     1,
				AvgOrderValue:         80,
				LifespanDays:          120,
			},
			expectedProbability: 0.7,
			expectedRisk:        domain.ChurnHigh,
			expectedDays:        9,
		},
		{
			name: "Inativo e raro - probabilidade saturada no teto",
			features: domain.CustomerFeatures{
				CustomerName:          "Eduardo",
				DaysSinceLastPurchase: 100,
				PurchaseFrequency:     0.3,
				AvgOrderValue:         80,
				LifespanDays:          120,
			},
			expectedProbability: 0.95,
			expectedRisk:        domain.ChurnCritical,
			expectedDays:        2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prediction := predictCustomer(tt.features)

			assert.InDelta(t, tt.expectedProbability, prediction.ChurnProbability, 0.001)
			assert.Equal(t, tt.expectedRisk, prediction.RiskLevel)
			assert.Equal(t, tt.expectedDays, prediction.DaysUntilChurn)
			assert.LessOrEqual(t, len(prediction.KeyFactors), 3)
			assert.LessOrEqual(t, len(prediction.RetentionStrategies), 3)
		})
	}
}

func TestBuildCustomerFeatures(t *testing.T) {
	t.Run("Agrega compras por cliente e ignora vendas sem nome", func(t *testing.T) {
		records := []*domain.SalesRecord{
			purchase("Ana", 60, 100),
			purchase("Ana", 30, 200),
			purchase("Ana", 10, 60),
			purchase("", 5, 999),
		}

		features := buildCustomerFeatures(records, time.Now().UTC())

		require.Len(t, features, 1)
		ana := features[0]
		assert.Equal(t, "Ana", ana.CustomerName)
		assert.Equal(t, 3, ana.PurchaseCount)
		assert.InDelta(t, 360.0, ana.TotalRevenue, 0.001)
		assert.InDelta(t, 120.0, ana.AvgOrderValue, 0.001)
		assert.Equal(t, 10, ana.DaysSinceLastPurchase)

		// 51 dias entre a primeira e a última compra, inclusivo
		assert.Equal(t, 51, ana.LifespanDays)
		assert.InDelta(t, 3.0/(51.0/30.0), ana.PurchaseFrequency, 0.001)
	})

	t.Run("Compra única tem lifespan de um dia", func(t *testing.T) {
		features := buildCustomerFeatures([]*domain.SalesRecord{
			purchase("Bruno", 20, 50),
		}, time.Now().UTC())

		require.Len(t, features, 1)
		assert.Equal(t, 1, features[0].LifespanDays)
		// Uma compra num lifespan de um dia conta como frequência altíssima
		assert.InDelta(t, 30.0, features[0].PurchaseFrequency, 0.001)
	})

	t.Run("Resultado ordenado por nome do cliente", func(t *testing.T) {
		records := []*domain.SalesRecord{
			purchase("Zilda", 10, 50),
			purchase("Ana", 10, 50),
			purchase("Marcos", 10, 50),
		}

		features := buildCustomerFeatures(records, time.Now().UTC())

		require.Len(t, features, 3)
		assert.Equal(t, "Ana", features[0].CustomerName)
		assert.Equal(t, "Marcos", features[1].CustomerName)
		assert.Equal(t, "Zilda", features[2].CustomerName)
	})
}

func TestRiskForProbability(t *testing.T) {
	assert.Equal(t, domain.ChurnCritical, riskForProbability(0.8))
	assert.Equal(t, domain.ChurnHigh, riskForProbability(0.6))
	assert.Equal(t, domain.ChurnMedium, riskForProbability(0.3))
	assert.Equal(t, domain.ChurnLow, riskForProbability(0.29))
}
