package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vfg2006/sales-analytics-api/internal/usecases/segmenting"
	"github.com/vfg2006/sales-analytics-api/pkg/apiErrors"
)

// GetSegments retorna a segmentação de clientes e a matriz de produtos
func GetSegments(service segmenting.Segmenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		report, err := service.Segment(userID)
		if err != nil {
			writeAnalysisError(w, err, "segmentação de clientes")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}
