package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"github.com/vfg2006/sales-analytics-api/internal/usecases/detecting"
)

// AnomalySweepConfig representa a configuração da varredura de anomalias
type AnomalySweepConfig struct {
	CronSchedule string
	LookbackDays int
	SweepEnabled bool
}

// AnomalySweepService roda a detecção de anomalias de todos os usuários
// ativos em horário de baixo movimento, deixando os alertas prontos antes
// da primeira consulta do dia.
type AnomalySweepService struct {
	scheduler            *gocron.Scheduler
	config               AnomalySweepConfig
	salesRepo            repository.SalesRecordRepository
	detector             detecting.Detector
	sweepRunning         bool
	sweepMutex           sync.Mutex
	lastSweepStartedAt   time.Time
	lastSweepCompletedAt time.Time
}

// NewAnomalySweepService cria uma nova instância do serviço de varredura
func NewAnomalySweepService(
	salesRepo repository.SalesRecordRepository,
	detector detecting.Detector,
	appConfig *config.Config,
) *AnomalySweepService {
	sweepConfig := AnomalySweepConfig{
		CronSchedule: appConfig.AnomalySweep.CronSchedule,
		LookbackDays: appConfig.AnomalySweep.LookbackDays,
		SweepEnabled: appConfig.AnomalySweep.Enabled,
	}

	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule": sweepConfig.CronSchedule,
		"lookback_days": sweepConfig.LookbackDays,
		"sweep_enabled": sweepConfig.SweepEnabled,
	}).Info("Configuração da varredura de anomalias carregada")

	return &AnomalySweepService{
		scheduler:    scheduler,
		config:       sweepConfig,
		salesRepo:    salesRepo,
		detector:     detector,
		sweepRunning: false,
	}
}

// Start inicia o agendador
func (s *AnomalySweepService) Start(ctx context.Context) error {
	if !s.config.SweepEnabled {
		logrus.Info("Varredura de anomalias desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador da varredura de anomalias")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.sweepAllUsers()
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar varredura de anomalias: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador da varredura de anomalias")
		s.scheduler.Stop()
	}()

	return nil
}

// sweepAllUsers roda a detecção para todos os usuários com vendas recentes
func (s *AnomalySweepService) sweepAllUsers() {
	s.sweepMutex.Lock()
	if s.sweepRunning {
		s.sweepMutex.Unlock()
		logrus.Info("Varredura de anomalias já em andamento, ignorando")
		return
	}
	s.sweepRunning = true
	startTime := time.Now()
	s.lastSweepStartedAt = startTime
	s.sweepMutex.Unlock()

	defer func() {
		s.sweepMutex.Lock()
		s.sweepRunning = false
		s.sweepMutex.Unlock()
	}()

	logrus.Info("Iniciando varredura de anomalias para todos os usuários ativos")

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -s.config.LookbackDays)

	userIDs, err := s.salesRepo.ListActiveUserIDs(since)
	if err != nil {
		logrus.WithError(err).Error("Erro ao buscar usuários ativos para a varredura de anomalias")
		return
	}

	if len(userIDs) == 0 {
		logrus.Info("Nenhum usuário ativo encontrado para a varredura de anomalias")
		return
	}

	swept := 0
	for _, userID := range userIDs {
		if s.sweepUser(userID, since, now) {
			swept++
		}
	}

	duration := time.Since(startTime)
	logrus.WithFields(logrus.Fields{
		"duration": duration.String(),
		"users":    len(userIDs),
		"swept":    swept,
	}).Info("Varredura de anomalias concluída")

	s.sweepMutex.Lock()
	s.lastSweepCompletedAt = time.Now()
	s.sweepMutex.Unlock()
}

// sweepUser roda a detecção de um usuário. Dados insuficientes não são
// erro: usuários com histórico curto simplesmente ficam de fora.
func (s *AnomalySweepService) sweepUser(userID string, since, now time.Time) bool {
	records, err := s.salesRepo.GetByUserAndPeriod(userID, since, now, 2000)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Erro ao buscar vendas do usuário para a varredura")
		return false
	}

	anomalies, err := s.detector.DetectAll(userID, records, now)
	if err != nil {
		if domain.IsInsufficientData(err) {
			logrus.WithField("user_id", userID).Debug("Usuário sem histórico suficiente para a varredura")
			return false
		}

		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Erro na detecção de anomalias durante a varredura")
		return false
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"anomalies": len(anomalies),
	}).Info("Varredura de anomalias do usuário concluída")

	return true
}

// TriggerManualSweep inicia manualmente uma varredura de anomalias
func (s *AnomalySweepService) TriggerManualSweep() {
	s.sweepMutex.Lock()
	if s.sweepRunning {
		s.sweepMutex.Unlock()
		logrus.Info("Varredura de anomalias já em andamento, ignorando solicitação manual")
		return
	}
	s.sweepMutex.Unlock()

	logrus.Info("Iniciando varredura manual de anomalias")
	go s.sweepAllUsers()
}

// GetStatus retorna o status atual do agendador
func (s *AnomalySweepService) GetStatus() map[string]any {
	s.sweepMutex.Lock()
	defer s.sweepMutex.Unlock()

	return map[string]any{
		"sweep_enabled":           s.config.SweepEnabled,
		"sweep_cron":              s.config.CronSchedule,
		"sweep_lookback_days":     s.config.LookbackDays,
		"last_sweep_started_at":   s.lastSweepStartedAt,
		"last_sweep_completed_at": s.lastSweepCompletedAt,
	}
}
