package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vfg2006/sales-analytics-api/internal/usecases/predicting"
	"github.com/vfg2006/sales-analytics-api/pkg/apiErrors"
)

// GetChurnPredictions retorna o risco de churn por cliente
func GetChurnPredictions(service predicting.Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		report, err := service.PredictChurn(userID)
		if err != nil {
			writeAnalysisError(w, err, "previsão de churn")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}
