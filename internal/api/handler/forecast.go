package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vfg2006/sales-analytics-api/internal/usecases/forecasting"
	"github.com/vfg2006/sales-analytics-api/pkg/apiErrors"
)

// GetForecast gera a previsão de vendas para o horizonte pedido
func GetForecast(service forecasting.Forecaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		forecastDays := 0
		if raw := r.URL.Query().Get("forecast_days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "forecast_days deve ser um inteiro positivo", nil)
				return
			}
			forecastDays = parsed
		}

		historicalDays := 0
		if raw := r.URL.Query().Get("historical_days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "historical_days deve ser um inteiro positivo", nil)
				return
			}
			historicalDays = parsed
		}

		result, err := service.ForecastForUser(userID, historicalDays, forecastDays)
		if err != nil {
			writeAnalysisError(w, err, "previsão de vendas")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
