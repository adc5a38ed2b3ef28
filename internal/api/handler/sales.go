package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"github.com/vfg2006/sales-analytics-api/internal/usecases/registering"
	"github.com/vfg2006/sales-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/sales-analytics-api/pkg/middleware"
	"github.com/vfg2006/sales-analytics-api/pkg/utils"
)

type createSaleRequest struct {
	Date          string  `json:"date"`
	ProductName   string  `json:"product_name"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TotalAmount   float64 `json:"total_amount"`
	CustomerName  string  `json:"customer_name"`
	Category      string  `json:"category"`
	PaymentMethod string  `json:"payment_method"`
}

type listSalesResponse struct {
	Total   int                   `json:"total"`
	Records []*domain.SalesRecord `json:"records"`
}

// requestUserID extrai o ID do usuário autenticado do contexto da requisição
func requestUserID(r *http.Request) (string, bool) {
	claims, ok := r.Context().Value(middleware.ContextKeyUser).(*domain.Claims)
	if !ok {
		return "", false
	}
	return strconv.Itoa(claims.UserID), true
}

// CreateSale registra uma venda para o usuário autenticado
func CreateSale(service registering.Registrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		var req createSaleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		saleDate, err := utils.ParseDate(req.Date)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Data da venda inválida, use YYYY-MM-DD", nil)
			return
		}

		record, err := service.RecordSale(userID, registering.NewSale{
			Date:          *saleDate,
			ProductName:   req.ProductName,
			Quantity:      req.Quantity,
			UnitPrice:     req.UnitPrice,
			TotalAmount:   req.TotalAmount,
			CustomerName:  req.CustomerName,
			Category:      req.Category,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			switch err {
			case registering.ErrMissingProduct, registering.ErrInvalidAmount, registering.ErrInvalidDate:
				apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, err.Error(), nil)
			default:
				logrus.Error("Erro ao registrar venda:", err)
				apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao registrar venda", nil)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(record)
	}
}

// ListSales retorna as vendas do usuário no período pedido
func ListSales(service registering.Registrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		var start, end time.Time
		if raw := r.URL.Query().Get("start_date"); raw != "" {
			parsed, err := utils.ParseDate(raw)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "start_date inválida, use YYYY-MM-DD", nil)
				return
			}
			start = *parsed
		}
		if raw := r.URL.Query().Get("end_date"); raw != "" {
			parsed, err := utils.ParseDate(raw)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "end_date inválida, use YYYY-MM-DD", nil)
				return
			}
			end = *parsed
		}

		records, err := service.ListSales(userID, start, end)
		if err != nil {
			logrus.Error("Erro ao listar vendas:", err)
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar vendas", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listSalesResponse{
			Total:   len(records),
			Records: records,
		})
	}
}
