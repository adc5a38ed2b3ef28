package detecting

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"github.com/vfg2006/sales-analytics-api/internal/usecases/aggregating"
)

// Detector é o ponto de entrada da detecção de anomalias
type Detector interface {
	DetectAll(userID string, records []*domain.SalesRecord, now time.Time) ([]*domain.Anomaly, error)
}

// Service orquestra os cinco sub-detetores estatísticos e persiste o
// resultado no Anomaly Store via upsert idempotente.
type Service struct {
	anomalyRepo repository.AnomalyRepository
}

func NewService(anomalyRepo repository.AnomalyRepository) *Service {
	return &Service{
		anomalyRepo: anomalyRepo,
	}
}

// DetectAll roda os sub-detectores de forma independente e concatena os
// resultados. A falha de um sub-detector não impede os demais de rodar;
// apenas a falha de todos os cinco propaga como erro agregado.
func (s *Service) DetectAll(userID string, records []*domain.SalesRecord, now time.Time) ([]*domain.Anomaly, error) {
	series, err := aggregating.BuildDailySeries(records)
	if err != nil {
		return nil, err
	}

	subDetectors := []struct {
		name string
		run  func() []*domain.Anomaly
	}{
		{"volume", func() []*domain.Anomaly { return detectVolumeAnomalies(userID, series) }},
		{"revenue", func() []*domain.Anomaly { return detectRevenueAnomalies(userID, series) }},
		{"product", func() []*domain.Anomaly { return detectProductAnomalies(userID, records) }},
		{"pattern", func() []*domain.Anomaly { return detectPatternAnomalies(userID, series) }},
		{"trend", func() []*domain.Anomaly { return detectTrendReversal(userID, series) }},
	}

	anomalies := make([]*domain.Anomaly, 0)
	failures := 0

	for _, subDetector := range subDetectors {
		result, err := runSubDetector(subDetector.name, subDetector.run)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":  userID,
				"detector": subDetector.name,
				"error":    err.Error(),
			}).Error("detecting: sub-detector failed, dropping its output")
			failures++
			continue
		}
		anomalies = append(anomalies, result...)
	}

	if failures == len(subDetectors) {
		return nil, errors.Wrap(domain.ErrAnalysisFailed, "detecção de anomalias")
	}

	for _, anomaly := range anomalies {
		anomaly.Status = domain.AnomalyStatusNew
	}

	// Ordenação: severidade decrescente, depois data decrescente
	sort.Slice(anomalies, func(i, j int) bool {
		ri := domain.SeverityRank(anomalies[i].Severity)
		rj := domain.SeverityRank(anomalies[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return anomalies[i].Date.After(anomalies[j].Date)
	})

	s.persist(userID, anomalies)

	return anomalies, nil
}

// runSubDetector isola um sub-detector: pânicos numéricos viram
// ComputationError (logado e descartado), nunca derrubam o pipeline
func runSubDetector(name string, run func() []*domain.Anomaly) (result []*domain.Anomaly, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("falha de computação no sub-detector %s: %v", name, r)
		}
	}()

	return run(), nil
}

// persist faz o upsert das anomalias no Anomaly Store. Erros de
// persistência são logados mas não invalidam o resultado da detecção.
func (s *Service) persist(userID string, anomalies []*domain.Anomaly) {
	if s.anomalyRepo == nil {
		return
	}

	for _, anomaly := range anomalies {
		if err := s.anomalyRepo.SaveOrUpdate(anomaly); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":    userID,
				"anomaly_id": anomaly.ID,
				"error":      err.Error(),
			}).Warn("detecting: failed to upsert anomaly")
		}
	}
}
