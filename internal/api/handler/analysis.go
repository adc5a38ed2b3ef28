package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"github.com/vfg2006/sales-analytics-api/internal/usecases/reporting"
	"github.com/vfg2006/sales-analytics-api/pkg/apiErrors"
)

type updateAnomalyStatusRequest struct {
	Status string `json:"status"`
}

// writeAnalysisError mapeia os erros tipados do motor de análise para os
// códigos da API, preservando a distinção de três vias: dados insuficientes
// (422) nunca vira "tudo saudável" (200) nem falha total (500).
func writeAnalysisError(w http.ResponseWriter, err error, operation string) {
	var insufficient *domain.InsufficientDataError
	if errors.As(err, &insufficient) {
		apiErrors.WriteError(w, apiErrors.ErrInsufficientData, insufficient.Error(), map[string]int{
			"needed": insufficient.Needed,
			"got":    insufficient.Got,
		})
		return
	}

	if errors.Is(err, domain.ErrAnalysisFailed) {
		logrus.Error("Falha total da análise:", err)
		apiErrors.WriteError(w, apiErrors.ErrAnalysisFailed, "Todos os métodos de análise falharam", nil)
		return
	}

	if errors.Is(err, domain.ErrAnomalyNotFound) {
		apiErrors.WriteError(w, apiErrors.ErrAnomalyNotFound, "Anomalia não encontrada", nil)
		return
	}

	logrus.Error("Erro em "+operation+":", err)
	apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao executar "+operation, nil)
}

// GetAnomalies roda a análise completa de anomalias para o usuário
func GetAnomalies(service reporting.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		daysBack := 0
		if raw := r.URL.Query().Get("days_back"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "days_back deve ser um inteiro positivo", nil)
				return
			}
			daysBack = parsed
		}

		report, err := service.RunFullAnalysis(userID, daysBack)
		if err != nil {
			writeAnalysisError(w, err, "análise de anomalias")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}

// GetAnomalyAlerts retorna as anomalias críticas/altas recentes
func GetAnomalyAlerts(service reporting.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		report, err := service.GetAlerts(userID)
		if err != nil {
			writeAnalysisError(w, err, "busca de alertas")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}

// ExplainAnomalyByID retorna a explicação detalhada de uma anomalia
func ExplainAnomalyByID(service reporting.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		anomalyID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if anomalyID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID da anomalia é obrigatório", nil)
			return
		}

		explanation, err := service.ExplainAnomaly(userID, anomalyID)
		if err != nil {
			writeAnalysisError(w, err, "explicação de anomalia")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(explanation)
	}
}

// UpdateAnomalyStatus move a anomalia no fluxo de acompanhamento
func UpdateAnomalyStatus(service reporting.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		anomalyID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if anomalyID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID da anomalia é obrigatório", nil)
			return
		}

		var req updateAnomalyStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		switch req.Status {
		case domain.AnomalyStatusNew, domain.AnomalyStatusAcknowledged, domain.AnomalyStatusResolved:
		default:
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "status deve ser new, acknowledged ou resolved", nil)
			return
		}

		if err := service.UpdateAnomalyStatus(userID, anomalyID, req.Status); err != nil {
			writeAnalysisError(w, err, "atualização de status")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":     anomalyID,
			"status": req.Status,
		})
	}
}
