package predicting

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
)

const (
	// Mínimo de clientes com histórico para a previsão de churn operar
	MinCustomers = 10

	// Janela de histórico usada para montar as features RFM
	churnLookbackDays = 180

	maxDisplayedPredictions = 20
	maxChurnInsights        = 5
)

// Limiares da heurística de churn: dias desde a última compra mapeiam para
// uma probabilidade base, ajustada pela frequência de compra e limitada a
// [0.05, 0.95]
const (
	inactive90Probability = 0.9
	inactive60Probability = 0.7
	inactive30Probability = 0.4
	activeProbability     = 0.1

	highFrequencyFactor = 0.7
	lowFrequencyFactor  = 1.3

	probabilityFloor = 0.05
	probabilityCeil  = 0.95
)

// Predictor é o ponto de entrada da previsão de churn de clientes
type Predictor interface {
	PredictChurn(userID string) (*domain.ChurnReport, error)
}

type cachedReport struct {
	report      *domain.ChurnReport
	generatedAt time.Time
}

// Service calcula o risco de churn por cliente a partir das features RFM.
// O relatório é caro de montar, então fica em cache em memória por usuário
// com validade configurável.
type Service struct {
	salesRepo repository.SalesRecordRepository
	cfg       *config.Config

	mu    sync.Mutex
	cache map[string]cachedReport
}

func NewService(salesRepo repository.SalesRecordRepository, cfg *config.Config) *Service {
	return &Service{
		salesRepo: salesRepo,
		cfg:       cfg,
		cache:     make(map[string]cachedReport),
	}
}

// PredictChurn monta o relatório de churn para todos os clientes do usuário.
// Clientes sem nome são ignorados. Menos de 10 clientes distintos retorna
// o erro tipado de dados insuficientes.
func (s *Service) PredictChurn(userID string) (*domain.ChurnReport, error) {
	now := time.Now().UTC()

	if cached, ok := s.fromCache(userID, now); ok {
		return cached, nil
	}

	start := now.AddDate(0, 0, -churnLookbackDays)

	records, err := s.salesRepo.GetByUserAndPeriod(userID, start, now, uint64(s.cfg.Analysis.RecordCap))
	if err != nil {
		return nil, err
	}

	features := buildCustomerFeatures(records, now)
	if len(features) < MinCustomers {
		return nil, domain.NewInsufficientDataError("previsão de churn", MinCustomers, len(features))
	}

	predictions := make([]domain.ChurnPrediction, 0, len(features))
	highRisk := 0
	for _, customer := range features {
		prediction := predictCustomer(customer)
		if prediction.RiskLevel == domain.ChurnHigh || prediction.RiskLevel == domain.ChurnCritical {
			highRisk++
		}
		predictions = append(predictions, prediction)
	}

	// Maior risco primeiro; nome desempata para saída estável
	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].ChurnProbability != predictions[j].ChurnProbability {
			return predictions[i].ChurnProbability > predictions[j].ChurnProbability
		}
		return predictions[i].CustomerName < predictions[j].CustomerName
	})

	displayed := predictions
	if len(displayed) > maxDisplayedPredictions {
		displayed = displayed[:maxDisplayedPredictions]
	}

	report := &domain.ChurnReport{
		TotalCustomers:    len(predictions),
		HighRiskCustomers: highRisk,
		Predictions:       displayed,
		Insights:          buildChurnInsights(predictions, highRisk),
		GeneratedAt:       now,
	}

	s.store(userID, report, now)

	logrus.WithFields(logrus.Fields{
		"user_id":         userID,
		"total_customers": len(predictions),
		"high_risk":       highRisk,
	}).Info("predicting: churn report generated")

	return report, nil
}

func (s *Service) fromCache(userID string, now time.Time) (*domain.ChurnReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.cache[userID]
	if !ok {
		return nil, false
	}

	maxAge := time.Duration(s.cfg.Analysis.ChurnCacheDays) * 24 * time.Hour
	if now.Sub(cached.generatedAt) > maxAge {
		delete(s.cache, userID)
		return nil, false
	}

	report := *cached.report
	report.FromCache = true
	return &report, true
}

func (s *Service) store(userID string, report *domain.ChurnReport, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[userID] = cachedReport{report: report, generatedAt: now}
}

// buildCustomerFeatures agrega o histórico de compras em features RFM por
// cliente
func buildCustomerFeatures(records []*domain.SalesRecord, now time.Time) []domain.CustomerFeatures {
	byCustomer := make(map[string]*domain.CustomerFeatures)

	for _, record := range records {
		if record.CustomerName == "" {
			continue
		}

		features, ok := byCustomer[record.CustomerName]
		if !ok {
			features = &domain.CustomerFeatures{
				CustomerName:  record.CustomerName,
				FirstPurchase: record.Date,
				LastPurchase:  record.Date,
			}
			byCustomer[record.CustomerName] = features
		}

		features.TotalRevenue += record.TotalAmount
		features.PurchaseCount++
		if record.Date.Before(features.FirstPurchase) {
			features.FirstPurchase = record.Date
		}
		if record.Date.After(features.LastPurchase) {
			features.LastPurchase = record.Date
		}
	}

	result := make([]domain.CustomerFeatures, 0, len(byCustomer))
	for _, features := range byCustomer {
		features.AvgOrderValue = features.TotalRevenue / float64(features.PurchaseCount)
		features.DaysSinceLastPurchase = int(now.Sub(features.LastPurchase).Hours() / 24)
		features.LifespanDays = int(features.LastPurchase.Sub(features.FirstPurchase).Hours()/24) + 1

		// Compras por mês ao longo da vida do cliente
		features.PurchaseFrequency = float64(features.PurchaseCount) / (float64(features.LifespanDays) / 30.0)

		result = append(result, *features)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CustomerName < result[j].CustomerName
	})

	return result
}

// predictCustomer aplica a heurística de churn a um cliente individual
func predictCustomer(customer domain.CustomerFeatures) domain.ChurnPrediction {
	var probability float64
	switch {
	case customer.DaysSinceLastPurchase > 90:
		probability = inactive90Probability
	case customer.DaysSinceLastPurchase > 60:
		probability = inactive60Probability
	case customer.DaysSinceLastPurchase > 30:
		probability = inactive30Probability
	default:
		probability = activeProbability
	}

	if customer.PurchaseFrequency > 2 {
		probability *= highFrequencyFactor
	} else if customer.PurchaseFrequency < 0.5 {
		probability *= lowFrequencyFactor
	}

	if probability < probabilityFloor {
		probability = probabilityFloor
	}
	if probability > probabilityCeil {
		probability = probabilityCeil
	}

	riskLevel := riskForProbability(probability)

	daysUntilChurn := int(math.Round(30 * (1 - probability)))
	if daysUntilChurn < 1 {
		daysUntilChurn = 1
	}

	return domain.ChurnPrediction{
		CustomerName:        customer.CustomerName,
		ChurnProbability:    probability,
		RiskLevel:           riskLevel,
		DaysUntilChurn:      daysUntilChurn,
		KeyFactors:          churnFactors(customer),
		RetentionStrategies: retentionStrategies(customer, riskLevel),
	}
}

func riskForProbability(probability float64) domain.ChurnRisk {
	switch {
	case probability >= 0.8:
		return domain.ChurnCritical
	case probability >= 0.6:
		return domain.ChurnHigh
	case probability >= 0.3:
		return domain.ChurnMedium
	default:
		return domain.ChurnLow
	}
}

// churnFactors lista até 3 fatores que contribuem para o risco do cliente
func churnFactors(customer domain.CustomerFeatures) []string {
	factors := make([]string, 0, 3)

	if customer.DaysSinceLastPurchase > 60 {
		factors = append(factors, "Muito tempo desde a última compra")
	}
	if customer.PurchaseFrequency < 0.5 {
		factors = append(factors, "Baixa frequência de compra")
	}
	if customer.AvgOrderValue < 30 {
		factors = append(factors, "Ticket médio baixo")
	}
	if customer.LifespanDays < 30 {
		factors = append(factors, "Cliente novo - ainda construindo fidelidade")
	}

	if len(factors) > 3 {
		factors = factors[:3]
	}

	return factors
}

// retentionStrategies gera até 3 estratégias de retenção por nível de risco
func retentionStrategies(customer domain.CustomerFeatures, riskLevel domain.ChurnRisk) []string {
	var strategies []string

	switch riskLevel {
	case domain.ChurnCritical:
		strategies = []string{
			"Contato pessoal imediato com oferta especial",
			"Desconto VIP exclusivo ou brinde",
			"Ligação direta para entender os problemas",
		}
	case domain.ChurnHigh:
		strategies = []string{
			"Enviar campanha de reengajamento direcionada",
			"Oferecer desconto personalizado nos produtos favoritos",
			"Convidar para evento exclusivo de clientes",
		}
	case domain.ChurnMedium:
		strategies = []string{
			"Incluir nas comunicações regulares do programa de fidelidade",
			"Enviar recomendações de produtos com base no histórico",
			"Oferecer pequeno incentivo para a próxima compra",
		}
	default:
		strategies = []string{
			"Manter o engajamento regular",
			"Monitorar mudanças de comportamento",
		}
	}

	if customer.AvgOrderValue > 100 {
		strategies = append(strategies, "Focar em recomendações de produtos premium")
	} else {
		strategies = append(strategies, "Oferecer combos para aumentar o ticket médio")
	}

	if len(strategies) > 3 {
		strategies = strategies[:3]
	}

	return strategies
}

// buildChurnInsights gera as leituras agregadas do conjunto de previsões
func buildChurnInsights(predictions []domain.ChurnPrediction, highRisk int) []string {
	insights := make([]string, 0, maxChurnInsights)

	if highRisk > 0 {
		insights = append(insights, fmt.Sprintf("%d clientes em alto risco de churn", highRisk))
	}

	factorCounts := map[string]int{}
	for _, prediction := range predictions {
		for _, factor := range prediction.KeyFactors {
			factorCounts[factor]++
		}
	}

	mostCommon := ""
	mostCommonCount := 0
	for factor, count := range factorCounts {
		if count > mostCommonCount || (count == mostCommonCount && factor < mostCommon) {
			mostCommon = factor
			mostCommonCount = count
		}
	}
	if mostCommon != "" {
		insights = append(insights, "Fator de risco mais comum: "+mostCommon)
	}

	criticalCount := 0
	for _, prediction := range predictions {
		if prediction.RiskLevel == domain.ChurnCritical {
			criticalCount++
		}
	}
	if criticalCount > 0 {
		insights = append(insights, fmt.Sprintf("%d clientes em risco crítico precisam de contato imediato", criticalCount))
	}

	if len(insights) > maxChurnInsights {
		insights = insights[:maxChurnInsights]
	}

	return insights
}
