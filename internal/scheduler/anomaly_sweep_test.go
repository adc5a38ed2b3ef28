package scheduler

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	detectingmocks "github.com/vfg2006/sales-analytics-api/internal/usecases/detecting/mocks"
	"go.uber.org/mock/gomock"
)

func sweepConfig() *config.Config {
	return &config.Config{
		AnomalySweep: config.AnomalySweep{
			Enabled:      true,
			CronSchedule: "0 3 * * *",
			LookbackDays: 30,
		},
	}
}

func TestSweepUser(t *testing.T) {
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -30)

	t.Run("Detecção bem-sucedida conta como usuário varrido", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		records := []*domain.SalesRecord{{ID: "venda-1", UserID: "user-1"}}
		salesRepo.EXPECT().
			GetByUserAndPeriod("user-1", since, now, uint64(2000)).
			Return(records, nil)
		detector.EXPECT().
			DetectAll("user-1", records, now).
			Return([]*domain.Anomaly{}, nil)

		service := NewAnomalySweepService(salesRepo, detector, sweepConfig())

		assert.True(t, service.sweepUser("user-1", since, now))
	})

	t.Run("Histórico curto não é erro - usuário fica de fora", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		salesRepo.EXPECT().
			GetByUserAndPeriod("user-1", since, now, uint64(2000)).
			Return([]*domain.SalesRecord{}, nil)
		detector.EXPECT().
			DetectAll("user-1", gomock.Any(), now).
			Return(nil, domain.NewInsufficientDataError("agregação diária", 7, 2))

		service := NewAnomalySweepService(salesRepo, detector, sweepConfig())

		assert.False(t, service.sweepUser("user-1", since, now))
	})

	t.Run("Erro do repositório não derruba a varredura", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		salesRepo.EXPECT().
			GetByUserAndPeriod("user-1", since, now, uint64(2000)).
			Return(nil, errors.New("conexão recusada"))

		service := NewAnomalySweepService(salesRepo, detector, sweepConfig())

		assert.False(t, service.sweepUser("user-1", since, now))
	})

	t.Run("Erro do detector não derruba a varredura", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		salesRepo.EXPECT().
			GetByUserAndPeriod("user-1", since, now, uint64(2000)).
			Return([]*domain.SalesRecord{}, nil)
		detector.EXPECT().
			DetectAll("user-1", gomock.Any(), now).
			Return(nil, domain.ErrAnalysisFailed)

		service := NewAnomalySweepService(salesRepo, detector, sweepConfig())

		assert.False(t, service.sweepUser("user-1", since, now))
	})
}

func TestSweepAllUsers(t *testing.T) {
	t.Run("Varre cada usuário ativo uma única vez", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		salesRepo.EXPECT().
			ListActiveUserIDs(gomock.Any()).
			Return([]string{"user-1", "user-2"}, nil)
		salesRepo.EXPECT().
			GetByUserAndPeriod("user-1", gomock.Any(), gomock.Any(), uint64(2000)).
			Return([]*domain.SalesRecord{}, nil)
		salesRepo.EXPECT().
			GetByUserAndPeriod("user-2", gomock.Any(), gomock.Any(), uint64(2000)).
			Return([]*domain.SalesRecord{}, nil)
		detector.EXPECT().
			DetectAll("user-1", gomock.Any(), gomock.Any()).
			Return([]*domain.Anomaly{}, nil)
		detector.EXPECT().
			DetectAll("user-2", gomock.Any(), gomock.Any()).
			Return([]*domain.Anomaly{}, nil)

		service := NewAnomalySweepService(salesRepo, detector, sweepConfig())
		service.sweepAllUsers()

		// Os marcos de execução ficam visíveis pela leitura protegida
		status := service.GetStatus()
		assert.False(t, status["last_sweep_started_at"].(time.Time).IsZero())
		assert.False(t, status["last_sweep_completed_at"].(time.Time).IsZero())
	})

	t.Run("Sem usuários ativos a varredura termina cedo", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
		detector := detectingmocks.NewMockDetector(ctrl)

		salesRepo.EXPECT().
			ListActiveUserIDs(gomock.Any()).
			Return([]string{}, nil)

		service := NewAnomalySweepService(salesRepo, detector, sweepConfig())
		service.sweepAllUsers()
	})
}

func TestGetStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	salesRepo := mocks.NewMockSalesRecordRepository(ctrl)
	detector := detectingmocks.NewMockDetector(ctrl)

	service := NewAnomalySweepService(salesRepo, detector, sweepConfig())

	status := service.GetStatus()

	assert.Equal(t, true, status["sweep_enabled"])
	assert.Equal(t, "0 3 * * *", status["sweep_cron"])
	assert.Equal(t, 30, status["sweep_lookback_days"])
}
