package detecting

import (
	"math"

	"github.com/vfg2006/sales-analytics-api/internal/domain"
)

// Limiares de severidade sobre o deviation score (z-score).
// A severidade é monotônica não-decrescente no score.
const (
	severityCriticalThreshold = 4.0
	severityHighThreshold     = 3.0
	severityMediumThreshold   = 2.0
)

// confidenceCap impede que a confiança chegue à certeza
const confidenceCap = 0.95

// severityForScore mapeia o deviation score para a camada de severidade
func severityForScore(score float64) domain.AnomalySeverity {
	switch {
	case score >= severityCriticalThreshold:
		return domain.SeverityCritical
	case score >= severityHighThreshold:
		return domain.SeverityHigh
	case score >= severityMediumThreshold:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// confidenceForScore converte o deviation score em confiança (0 a 0.95).
// O divisor varia entre 3.0 e 4.0 por detector: desvios maiores geram mais
// confiança, mas nunca certeza.
func confidenceForScore(score, divisor float64) float64 {
	return math.Min(confidenceCap, score/divisor)
}

// suggestionsFor devolve até 4 sugestões determinísticas por combinação
// tipo/impacto. Mesma entrada, mesmo conjunto de sugestões, sempre.
func suggestionsFor(anomalyType domain.AnomalyType, impact string) []string {
	switch anomalyType {
	case domain.AnomalySalesDrop:
		return []string{
			"Revise suas campanhas de marketing recentes",
			"Verifique a atividade de concorrentes na região",
			"Confirme se houve problemas de estoque ou atendimento",
			"Considere uma promoção para reativar as vendas",
		}
	case domain.AnomalySalesSpike:
		return []string{
			"Documente as condições que geraram o pico",
			"Replique as ações de marketing que funcionaram",
			"Garanta estoque para sustentar a demanda",
			"Colete feedback dos novos clientes",
		}
	case domain.AnomalyRevenue:
		if impact == domain.ImpactNegative {
			return []string{
				"Revise a precificação dos produtos principais",
				"Verifique descontos concedidos no período",
				"Analise o mix de produtos vendidos no dia",
				"Compare com o mesmo dia em semanas anteriores",
			}
		}
		return []string{
			"Identifique quais produtos puxaram a receita",
			"Avalie se o preço atual pode ser mantido",
			"Registre o contexto do dia para repetir o resultado",
		}
	case domain.AnomalyProduct:
		if impact == domain.ImpactNegative {
			return []string{
				"Revise o posicionamento e o preço do produto",
				"Avalie a qualidade e a apresentação do produto",
				"Considere descontinuar ou reformular o produto",
			}
		}
		return []string{
			"Aumente o estoque do produto em destaque",
			"Use o produto como carro-chefe nas promoções",
			"Analise o que diferencia esse produto dos demais",
		}
	case domain.AnomalyPatternBreak:
		return []string{
			"Compare o dia com as semanas anteriores",
			"Verifique eventos externos (feriados, clima, concorrência)",
			"Ajuste o planejamento de equipe e estoque para o dia",
		}
	case domain.AnomalyTrendReversal:
		if impact == domain.ImpactNegative {
			return []string{
				"Investigue a causa da reversão de tendência",
				"Reforce as ações comerciais antes que a queda se consolide",
				"Monitore os próximos dias com atenção redobrada",
			}
		}
		return []string{
			"Identifique o que iniciou a recuperação",
			"Invista nas ações que sustentam a nova tendência",
			"Acompanhe se o crescimento se mantém na próxima semana",
		}
	default:
		return nil
	}
}
