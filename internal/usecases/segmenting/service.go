package segmenting

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
)

const (
	// Janela de histórico da segmentação
	segmentLookbackDays = 90

	maxTopCustomers = 10
	maxTopProducts  = 10
	maxSegmentInsights = 5

	// Fração da receita total que qualifica um cliente como VIP
	vipRevenueShare = 0.1

	// Percentil que separa os quadrantes da matriz de produtos
	tierPercentile = 0.7
)

// Segmenter é o ponto de entrada da inteligência de clientes e produtos
type Segmenter interface {
	Segment(userID string) (*domain.SegmentationReport, error)
}

// Service classifica clientes em segmentos comportamentais e produtos na
// matriz receita x frequência.
type Service struct {
	salesRepo repository.SalesRecordRepository
	cfg       *config.Config
}

func NewService(salesRepo repository.SalesRecordRepository, cfg *config.Config) *Service {
	return &Service{
		salesRepo: salesRepo,
		cfg:       cfg,
	}
}

type customerStats struct {
	name          string
	totalRevenue  float64
	purchaseCount int
	firstPurchase time.Time
	lastPurchase  time.Time
}

type productStats struct {
	name             string
	totalRevenue     float64
	salesCount       int
	firstHalfRevenue float64
	secondHalfRevenue float64
}

// Segment monta o relatório de segmentação do usuário. Registros sem nome
// de cliente participam só da classificação de produtos.
func (s *Service) Segment(userID string) (*domain.SegmentationReport, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -segmentLookbackDays)

	records, err := s.salesRepo.GetByUserAndPeriod(userID, start, now, uint64(s.cfg.Analysis.RecordCap))
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, domain.NewInsufficientDataError("segmentação de clientes", 1, 0)
	}

	customers := s.segmentCustomers(records, now)
	products := s.classifyProducts(records, now)

	report := &domain.SegmentationReport{
		TotalCustomers: len(customers),
		TotalProducts:  len(products),
		SegmentCounts:  map[string]int{},
		TierCounts:     map[string]int{},
	}

	for _, customer := range customers {
		report.SegmentCounts[string(customer.Segment)]++
	}
	for _, product := range products {
		report.TierCounts[string(product.Tier)]++
	}

	report.TopCustomers = topCustomers(customers)
	report.TopProducts = topProducts(products)
	report.Insights = buildSegmentInsights(customers, products)

	logrus.WithFields(logrus.Fields{
		"user_id":         userID,
		"total_customers": len(customers),
		"total_products":  len(products),
	}).Info("segmenting: segmentation report generated")

	return report, nil
}

// segmentCustomers agrega o histórico por cliente e aplica as regras de
// segmentação comportamental
func (s *Service) segmentCustomers(records []*domain.SalesRecord, now time.Time) []domain.CustomerInsight {
	byCustomer := make(map[string]*customerStats)
	totalRevenue := 0.0

	for _, record := range records {
		totalRevenue += record.TotalAmount

		if record.CustomerName == "" {
			continue
		}

		stats, ok := byCustomer[record.CustomerName]
		if !ok {
			stats = &customerStats{
				name:          record.CustomerName,
				firstPurchase: record.Date,
				lastPurchase:  record.Date,
			}
			byCustomer[record.CustomerName] = stats
		}

		stats.totalRevenue += record.TotalAmount
		stats.purchaseCount++
		if record.Date.Before(stats.firstPurchase) {
			stats.firstPurchase = record.Date
		}
		if record.Date.After(stats.lastPurchase) {
			stats.lastPurchase = record.Date
		}
	}

	insights := make([]domain.CustomerInsight, 0, len(byCustomer))
	for _, stats := range byCustomer {
		daysSinceLast := int(now.Sub(stats.lastPurchase).Hours() / 24)
		avgOrderValue := stats.totalRevenue / float64(stats.purchaseCount)

		// Risco cresce linearmente até saturar em 60 dias de inatividade
		churnRisk := float64(daysSinceLast) / 60.0
		if churnRisk > 1.0 {
			churnRisk = 1.0
		}

		segment := segmentFor(stats, daysSinceLast, totalRevenue)

		insights = append(insights, domain.CustomerInsight{
			CustomerName:     stats.name,
			Segment:          segment,
			TotalRevenue:     stats.totalRevenue,
			PurchaseCount:    stats.purchaseCount,
			AvgOrderValue:    avgOrderValue,
			LastPurchaseDays: daysSinceLast,
			ChurnRisk:        churnRisk,
			Recommendations:  customerRecommendations(segment, churnRisk, avgOrderValue),
		})
	}

	return insights
}

// segmentFor aplica as regras de segmentação em ordem de precedência
func segmentFor(stats *customerStats, daysSinceLast int, totalRevenue float64) domain.CustomerSegment {
	switch {
	case totalRevenue > 0 && stats.totalRevenue >= totalRevenue*vipRevenueShare:
		return domain.SegmentVIP
	case stats.purchaseCount >= 5 && daysSinceLast <= 30:
		return domain.SegmentLoyal
	case daysSinceLast > 60 && stats.purchaseCount > 1:
		return domain.SegmentAtRisk
	case daysSinceLast > 60:
		return domain.SegmentDormant
	case stats.purchaseCount == 1:
		return domain.SegmentNew
	default:
		return domain.SegmentRegular
	}
}

// classifyProducts agrega o histórico por produto e classifica cada um na
// matriz receita x frequência pelos percentis dentro do próprio catálogo
func (s *Service) classifyProducts(records []*domain.SalesRecord, now time.Time) []domain.ProductInsight {
	byProduct := make(map[string]*productStats)
	totalRevenue := 0.0
	midPoint := now.AddDate(0, 0, -segmentLookbackDays/2)

	for _, record := range records {
		if record.ProductName == "" {
			continue
		}

		stats, ok := byProduct[record.ProductName]
		if !ok {
			stats = &productStats{name: record.ProductName}
			byProduct[record.ProductName] = stats
		}

		stats.totalRevenue += record.TotalAmount
		stats.salesCount++
		totalRevenue += record.TotalAmount

		if record.Date.Before(midPoint) {
			stats.firstHalfRevenue += record.TotalAmount
		} else {
			stats.secondHalfRevenue += record.TotalAmount
		}
	}

	all := make([]*productStats, 0, len(byProduct))
	for _, stats := range byProduct {
		all = append(all, stats)
	}

	insights := make([]domain.ProductInsight, 0, len(all))
	for _, stats := range all {
		revenuePercentile := percentileOf(all, func(other *productStats) bool {
			return other.totalRevenue <= stats.totalRevenue
		})
		salesPercentile := percentileOf(all, func(other *productStats) bool {
			return other.salesCount <= stats.salesCount
		})

		tier := tierFor(revenuePercentile, salesPercentile)

		revenueShare := 0.0
		if totalRevenue > 0 {
			revenueShare = stats.totalRevenue / totalRevenue * 100
		}

		growthRate := productGrowthRate(stats)

		insights = append(insights, domain.ProductInsight{
			ProductName:     stats.name,
			Tier:            tier,
			TotalRevenue:    stats.totalRevenue,
			SalesCount:      stats.salesCount,
			RevenueShare:    revenueShare,
			GrowthRate:      growthRate,
			Recommendations: productRecommendations(tier, growthRate),
		})
	}

	return insights
}

func percentileOf(all []*productStats, below func(*productStats) bool) float64 {
	if len(all) == 0 {
		return 0
	}

	count := 0
	for _, stats := range all {
		if below(stats) {
			count++
		}
	}

	return float64(count) / float64(len(all))
}

func tierFor(revenuePercentile, salesPercentile float64) domain.ProductTier {
	switch {
	case revenuePercentile >= tierPercentile && salesPercentile >= tierPercentile:
		return domain.TierStar
	case revenuePercentile >= tierPercentile:
		return domain.TierCashCow
	case salesPercentile >= tierPercentile:
		return domain.TierPotential
	default:
		return domain.TierDog
	}
}

// productGrowthRate compara a receita das duas metades da janela. Produto
// com menos de 4 vendas ou sem vendas em alguma metade fica em 0.
func productGrowthRate(stats *productStats) float64 {
	if stats.salesCount < 4 {
		return 0
	}
	if stats.firstHalfRevenue == 0 {
		if stats.secondHalfRevenue > 0 {
			return 100
		}
		return 0
	}
	if stats.secondHalfRevenue == 0 {
		return 0
	}

	return (stats.secondHalfRevenue - stats.firstHalfRevenue) / stats.firstHalfRevenue * 100
}

func customerRecommendations(segment domain.CustomerSegment, churnRisk, avgOrderValue float64) []string {
	var recommendations []string

	switch segment {
	case domain.SegmentVIP:
		recommendations = []string{
			"Oferecer benefícios VIP exclusivos e acesso antecipado",
			"Designar um gerente de sucesso dedicado",
			"Criar recomendações de produto personalizadas",
		}
	case domain.SegmentLoyal:
		recommendations = []string{
			"Implementar programa de recompensas por fidelidade",
			"Enviar mensagens personalizadas de agradecimento",
			"Oferecer incentivos por indicação",
		}
	case domain.SegmentAtRisk:
		recommendations = []string{
			"Enviar campanhas de reengajamento imediatamente",
			"Oferecer descontos especiais para reconquistar",
			"Conduzir entrevista para entender os problemas",
		}
	case domain.SegmentNew:
		recommendations = []string{
			"Enviar série de boas-vindas e onboarding",
			"Oferecer incentivos de novo cliente",
			"Coletar feedback da primeira experiência",
		}
	case domain.SegmentDormant:
		recommendations = []string{
			"Lançar campanha de reconquista com ofertas atrativas",
			"Pesquisar o motivo do afastamento",
			"Considerar remover das listas ativas de marketing",
		}
	default:
		recommendations = []string{}
	}

	if churnRisk > 0.7 {
		recommendations = append(recommendations, "Risco alto de churn - intervenção imediata necessária")
	}
	if avgOrderValue < 50 {
		recommendations = append(recommendations, "Implementar estratégias de upselling para aumentar o ticket")
	}

	if len(recommendations) > 4 {
		recommendations = recommendations[:4]
	}

	return recommendations
}

func productRecommendations(tier domain.ProductTier, growthRate float64) []string {
	var recommendations []string

	switch tier {
	case domain.TierStar:
		recommendations = []string{
			"Investir em marketing e escalar a produção",
			"Expandir a linha com variações do produto",
			"Usar como produto-vitrine nas promoções",
		}
	case domain.TierCashCow:
		recommendations = []string{
			"Manter a qualidade e otimizar custos",
			"Usar os lucros para investir em outros produtos",
			"Considerar posicionamento premium",
		}
	case domain.TierPotential:
		recommendations = []string{
			"Aumentar o marketing para elevar a receita",
			"Otimizar a estratégia de preço",
			"Melhorar o posicionamento do produto",
		}
	default:
		recommendations = []string{
			"Considerar descontinuar ou reposicionar",
			"Analisar se combos podem ajudar",
			"Avaliar oportunidades de redução de custo",
		}
	}

	if growthRate > 20 {
		recommendations = append(recommendations, "Crescimento alto - aumentar estoque e marketing")
	} else if growthRate < -10 {
		recommendations = append(recommendations, "Em queda - investigar as causas e corrigir")
	}

	if len(recommendations) > 4 {
		recommendations = recommendations[:4]
	}

	return recommendations
}

// topCustomers ordena por receita decrescente e corta no top 10
func topCustomers(customers []domain.CustomerInsight) []domain.CustomerInsight {
	sorted := make([]domain.CustomerInsight, len(customers))
	copy(sorted, customers)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TotalRevenue != sorted[j].TotalRevenue {
			return sorted[i].TotalRevenue > sorted[j].TotalRevenue
		}
		return sorted[i].CustomerName < sorted[j].CustomerName
	})

	if len(sorted) > maxTopCustomers {
		sorted = sorted[:maxTopCustomers]
	}

	return sorted
}

// topProducts ordena por receita decrescente e corta no top 10
func topProducts(products []domain.ProductInsight) []domain.ProductInsight {
	sorted := make([]domain.ProductInsight, len(products))
	copy(sorted, products)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TotalRevenue != sorted[j].TotalRevenue {
			return sorted[i].TotalRevenue > sorted[j].TotalRevenue
		}
		return sorted[i].ProductName < sorted[j].ProductName
	})

	if len(sorted) > maxTopProducts {
		sorted = sorted[:maxTopProducts]
	}

	return sorted
}

func buildSegmentInsights(customers []domain.CustomerInsight, products []domain.ProductInsight) []string {
	insights := make([]string, 0, maxSegmentInsights)

	var vipCount, atRiskCount, dormantCount int
	for _, customer := range customers {
		switch customer.Segment {
		case domain.SegmentVIP:
			vipCount++
		case domain.SegmentAtRisk:
			atRiskCount++
		case domain.SegmentDormant:
			dormantCount++
		}
	}

	if vipCount > 0 {
		insights = append(insights, fmt.Sprintf("%d clientes VIP concentram a maior parte da receita", vipCount))
	}
	if atRiskCount > 0 {
		insights = append(insights, fmt.Sprintf("%d clientes em risco precisam de reengajamento", atRiskCount))
	}
	if dormantCount > 0 {
		insights = append(insights, fmt.Sprintf("%d clientes dormentes podem ser reconquistados", dormantCount))
	}

	var starCount, dogCount int
	for _, product := range products {
		switch product.Tier {
		case domain.TierStar:
			starCount++
		case domain.TierDog:
			dogCount++
		}
	}

	if starCount > 0 {
		insights = append(insights, fmt.Sprintf("%d produtos estrela sustentam receita e frequência", starCount))
	}
	if dogCount > 0 {
		insights = append(insights, fmt.Sprintf("%d produtos de baixo desempenho merecem revisão", dogCount))
	}

	if len(insights) > maxSegmentInsights {
		insights = insights[:maxSegmentInsights]
	}

	return insights
}
