package reporting

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	detectingmocks "github.com/vfg2006/sales-analytics-api/internal/usecases/detecting/mocks"
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

func anomaly(id string, anomalyType domain.AnomalyType, severity domain.AnomalySeverity, impact string, daysAgo int) *domain.Anomaly {
	return &domain.Anomaly{
		ID:             id,
		UserID:         "user-1",
		Type:           anomalyType,
		Severity:       severity,
		Status:         domain.AnomalyStatusNew,
		Date:           time.Now().UTC().AddDate(0, 0, -daysAgo),
		Value:          10,
		ExpectedValue:  100,
		DeviationScore: 4.5,
		Impact:         impact,
		Confidence:     0.9,
		Description:    "anomalia de teste",
		Suggestions:    []string{"sugestão 1", "sugestão 2", "sugestão 3"},
		Metadata:       map[string]string{"metric": "revenue"},
	}
}

func TestRunFullAnalysis(t *testing.T) {
	t.Run("Sem anomalias - relatório saudável com recomendações padrão", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		salesRepo.EXPECT().
			GetByUserAndPeriod("user-1", gomock.Any(), gomock.Any(), uint64(2000)).
			Return([]*domain.SalesRecord{}, nil)

		detector.EXPECT().
			DetectAll("user-1", gomock.Any(), gomock.Any()).
			Return([]*domain.Anomaly{}, nil)

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		report, err := service.RunFullAnalysis("user-1", 30)

		require.NoError(t, err)
		assert.Equal(t, 0, report.Summary.TotalAnomalies)
		assert.Empty(t, report.Anomalies)
		assert.Contains(t, report.Insights[0], "Nenhuma anomalia detectada")
		assert.Len(t, report.Recommendations, 3)
		assert.Equal(t, "Últimos 30 dias", report.AnalysisPeriod)
	})

	t.Run("Dados insuficientes propagam o erro tipado", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		salesRepo.EXPECT().
			GetByUserAndPeriod("user-1", gomock.Any(), gomock.Any(), uint64(2000)).
			Return([]*domain.SalesRecord{}, nil)

		detector.EXPECT().
			DetectAll("user-1", gomock.Any(), gomock.Any()).
			Return(nil, domain.NewInsufficientDataError("agregação diária", 7, 3))

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		report, err := service.RunFullAnalysis("user-1", 30)

		require.Error(t, err)
		assert.Nil(t, report)
		assert.True(t, domain.IsInsufficientData(err))
	})

	t.Run("Janela não informada usa o default de configuração", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		salesRepo.EXPECT().
			GetByUserAndPeriod("user-1", gomock.Any(), gomock.Any(), uint64(2000)).
			Return([]*domain.SalesRecord{}, nil)
		detector.EXPECT().
			DetectAll("user-1", gomock.Any(), gomock.Any()).
			Return([]*domain.Anomaly{}, nil)

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		report, err := service.RunFullAnalysis("user-1", 0)

		require.NoError(t, err)
		assert.Equal(t, "Últimos 30 dias", report.AnalysisPeriod)
	})

	t.Run("Com anomalias - sumário, top 10 e recomendações deduplicadas", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		// 12 anomalias: 2 críticas idênticas em sugestões + 10 medium
		detected := []*domain.Anomaly{
			anomaly("a-1", domain.AnomalySalesDrop, domain.SeverityCritical, domain.ImpactNegative, 1),
			anomaly("a-2", domain.AnomalyRevenue, domain.SeverityCritical, domain.ImpactNegative, 2),
		}
		for i := 0; i < 10; i++ {
			detected = append(detected, anomaly(
				"m-"+string(rune('a'+i)), domain.AnomalyRevenue,
				domain.SeverityMedium, domain.ImpactNegative, 3,
			))
		}

		salesRepo.EXPECT().
			GetByUserAndPeriod("user-1", gomock.Any(), gomock.Any(), uint64(2000)).
			Return([]*domain.SalesRecord{}, nil)
		detector.EXPECT().
			DetectAll("user-1", gomock.Any(), gomock.Any()).
			Return(detected, nil)

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		report, err := service.RunFullAnalysis("user-1", 30)

		require.NoError(t, err)
		assert.Equal(t, 12, report.Summary.TotalAnomalies)
		assert.Equal(t, 2, report.Summary.BySeverity["critical"])
		assert.Equal(t, 10, report.Summary.BySeverity["medium"])
		assert.Equal(t, 11, report.Summary.ByType["revenue_anomaly"])
		assert.Equal(t, 12, report.Summary.ByImpact["negative"])

		// Exibição limitada ao top 10, com no máximo 2 sugestões cada
		assert.Len(t, report.Anomalies, 10)
		for _, formatted := range report.Anomalies {
			assert.LessOrEqual(t, len(formatted.TopSuggestions), 2)
		}

		// Insights apontam os problemas críticos
		assert.Contains(t, report.Insights[0], "2 problemas críticos")

		// Recomendações: deduplicadas e limitadas a 8
		assert.LessOrEqual(t, len(report.Recommendations), 8)
		seen := map[string]bool{}
		for _, recommendation := range report.Recommendations {
			assert.False(t, seen[recommendation], "recomendação duplicada: %s", recommendation)
			seen[recommendation] = true
		}
	})
}

func TestGetAlerts(t *testing.T) {
	t.Run("Filtra por severidade e janela recente", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		stored := []*domain.Anomaly{
			anomaly("recente-critica", domain.AnomalySalesDrop, domain.SeverityCritical, domain.ImpactNegative, 1),
			anomaly("recente-alta", domain.AnomalyRevenue, domain.SeverityHigh, domain.ImpactNegative, 3),
			anomaly("recente-media", domain.AnomalyRevenue, domain.SeverityMedium, domain.ImpactNegative, 1),
			anomaly("antiga-critica", domain.AnomalySalesDrop, domain.SeverityCritical, domain.ImpactNegative, 15),
		}

		anomalyRepo.EXPECT().
			ListByUser("user-1", domain.AnomalyStatusNew, uint64(50)).
			Return(stored, nil)

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		report, err := service.GetAlerts("user-1")

		require.NoError(t, err)
		assert.Equal(t, 2, report.AlertCount)
		require.Len(t, report.Alerts, 2)

		ids := []string{report.Alerts[0].ID, report.Alerts[1].ID}
		assert.Contains(t, ids, "recente-critica")
		assert.Contains(t, ids, "recente-alta")

		for _, alert := range report.Alerts {
			assert.LessOrEqual(t, len(alert.ImmediateActions), 2)
		}
	})

	t.Run("Sem anomalias críticas - resumo tranquilizador", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		anomalyRepo.EXPECT().
			ListByUser("user-1", domain.AnomalyStatusNew, uint64(50)).
			Return([]*domain.Anomaly{}, nil)

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		report, err := service.GetAlerts("user-1")

		require.NoError(t, err)
		assert.Equal(t, 0, report.AlertCount)
		assert.Empty(t, report.Alerts)
		assert.Contains(t, report.Summary, "Nenhuma anomalia crítica")
	})
}

func TestExplainAnomaly(t *testing.T) {
	t.Run("Anomalia inexistente retorna erro de não encontrada", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		anomalyRepo.EXPECT().
			GetByID("user-1", "nao-existe").
			Return(nil, nil)

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		explanation, err := service.ExplainAnomaly("user-1", "nao-existe")

		require.Error(t, err)
		assert.Nil(t, explanation)
		assert.ErrorIs(t, err, domain.ErrAnomalyNotFound)
	})

	t.Run("Explicação usa os metadados do tipo da anomalia", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		stored := anomaly("a-1", domain.AnomalyProduct, domain.SeverityHigh, domain.ImpactPositive, 2)
		stored.Metadata["product_name"] = "Óculos de Sol Aviador"

		anomalyRepo.EXPECT().
			GetByID("user-1", "a-1").
			Return(stored, nil)

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		explanation, err := service.ExplainAnomaly("user-1", "a-1")

		require.NoError(t, err)
		assert.Contains(t, explanation.WhatHappened, "Óculos de Sol Aviador")
		assert.Contains(t, explanation.WhyDetected, "90%")
		assert.Contains(t, explanation.BusinessImpact, "positivo")
		assert.Equal(t, stored.Suggestions, explanation.NextSteps)
		assert.Equal(t, stored.Metadata, explanation.Technical)
	})
}

func TestUpdateAnomalyStatus(t *testing.T) {
	t.Run("Status válido delega para o repositório", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		anomalyRepo.EXPECT().
			UpdateStatus("user-1", "a-1", domain.AnomalyStatusAcknowledged).
			Return(nil)

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		err := service.UpdateAnomalyStatus("user-1", "a-1", domain.AnomalyStatusAcknowledged)

		assert.NoError(t, err)
	})

	t.Run("Status inválido é rejeitado sem tocar o repositório", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		err := service.UpdateAnomalyStatus("user-1", "a-1", "arquivada")

		assert.Error(t, err)
	})

	t.Run("Anomalia inexistente propaga o erro do repositório", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		anomalyRepo := mocks.NewMockAnomalyRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		anomalyRepo.EXPECT().
			UpdateStatus("user-1", "nao-existe", domain.AnomalyStatusResolved).
			Return(errors.WithStack(domain.ErrAnomalyNotFound))

		service := NewService(salesRepo, anomalyRepo, detector, testConfig())

		err := service.UpdateAnomalyStatus("user-1", "nao-existe", domain.AnomalyStatusResolved)

		assert.ErrorIs(t, err, domain.ErrAnomalyNotFound)
	})
}
