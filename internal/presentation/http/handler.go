package httppresentation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	appOrder "github.com/Zhima-Mochi/orderflow/internal/application/order"
	domainOrder "github.com/Zhima-Mochi/orderflow/internal/domain/order"
	domainPayment "github.com/Zhima-Mochi/orderflow/internal/domain/payment"
	domainStock "github.com/Zhima-Mochi/orderflow/internal/domain/stock"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/resilient"
	"github.com/Zhima-Mochi/orderflow/internal/observability"
	"github.com/go-chi/chi/v5"
)

const componentHTTPHandler = "http_server"

// Handler exposes the workflow engine over the transport-independent
// request/response contract.
type Handler struct {
	workflow *appOrder.Service
	stock    domainStock.Ledger
	trail    *resilient.AuditTrail
	conn     *resilient.Connection
	log      observability.Logger
	tel      observability.Observability
}

func NewHandler(
	workflow *appOrder.Service,
	stockLedger domainStock.Ledger,
	trail *resilient.AuditTrail,
	conn *resilient.Connection,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		workflow: workflow,
		stock:    stockLedger,
		trail:    trail,
		conn:     conn,
		log:      tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Observability(h.log, h.tel))

	r.Get("/health", h.handleHealth)

	r.Route("/order", func(r chi.Router) {
		r.Post("/", h.handleCreateOrder)
		r.Post("/item", h.handleAddItem)
		r.Post("/confirm", h.handleConfirm)
		r.Post("/pay", h.handlePay)
		r.Post("/ship", h.handleShip)
		r.Post("/complete", h.handleComplete)
		r.Post("/cancel", h.handleCancel)
		r.Get("/{orderID}", h.handleGetOrder)
	})

	r.Get("/payment/{paymentID}/status", h.handlePaymentStatus)

	r.Route("/stock", func(r chi.Router) {
		r.Post("/", h.handleAddStock)
		r.Get("/{productID}", h.handleGetStock)
	})

	r.Route("/dependency", func(r chi.Router) {
		r.Get("/status", h.handleDependencyStatus)
		r.Post("/connect", h.handleDependencyConnect)
		r.Post("/disconnect", h.handleDependencyDisconnect)
		r.Post("/fail", h.handleDependencyFail)
	})

	return r
}

type createOrderRequest struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}

type orderStatusResponse struct {
	OrderID string             `json:"order_id"`
	Status  domainOrder.Status `json:"status"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	o, err := h.workflow.CreateOrder(r.Context(), req.OrderID, req.CustomerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, orderStatusResponse{OrderID: o.ID, Status: o.Status})
}

type addItemRequest struct {
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type addItemResponse struct {
	OrderID     string  `json:"order_id"`
	ItemCount   int     `json:"item_count"`
	TotalAmount float64 `json:"total_amount"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	o, err := h.workflow.AddItem(r.Context(), req.OrderID, req.ProductID, req.Quantity, req.Price)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, addItemResponse{
		OrderID:     o.ID,
		ItemCount:   o.ItemCount(),
		TotalAmount: o.TotalAmount(),
	})
}

type orderIDRequest struct {
	OrderID string `json:"order_id"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.workflow.Confirm)
}

func (h *Handler) handleShip(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.workflow.Ship)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.workflow.Complete)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.workflow.Cancel)
}

func (h *Handler) handleTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, orderID string) (*domainOrder.Order, error),
) {
	var req orderIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	o, err := op(r.Context(), req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderStatusResponse{OrderID: o.ID, Status: o.Status})
}

type payRequest struct {
	OrderID string `json:"order_id"`
	Method  string `json:"method"`
}

type payResponse struct {
	OrderID   string               `json:"order_id"`
	PaymentID string               `json:"payment_id"`
	Status    domainPayment.Status `json:"status"`
	Amount    float64              `json:"amount"`
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	_, p, err := h.workflow.Pay(r.Context(), req.OrderID, req.Method)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payResponse{
		OrderID:   req.OrderID,
		PaymentID: p.ID,
		Status:    p.Status,
		Amount:    p.Amount,
	})
}

type orderItemView struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

type orderView struct {
	OrderID     string             `json:"order_id"`
	CustomerID  string             `json:"customer_id"`
	Items       []orderItemView    `json:"items"`
	ItemCount   int                `json:"item_count"`
	TotalAmount float64            `json:"total_amount"`
	Status      domainOrder.Status `json:"status"`
	PaymentID   string             `json:"payment_id,omitempty"`
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	o, err := h.workflow.GetOrder(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]orderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Total:     item.Total(),
		})
	}

	writeJSON(w, http.StatusOK, orderView{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Items:       items,
		ItemCount:   o.ItemCount(),
		TotalAmount: o.TotalAmount(),
		Status:      o.Status,
		PaymentID:   o.PaymentID,
	})
}

type paymentStatusResponse struct {
	PaymentID string               `json:"payment_id"`
	OrderID   string               `json:"order_id"`
	Status    domainPayment.Status `json:"status"`
	Amount    float64              `json:"amount"`
	Steps     []resilient.Step     `json:"steps"`
}

func (h *Handler) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	p, err := h.workflow.GetPayment(r.Context(), paymentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentStatusResponse{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Status:    p.Status,
		Amount:    p.Amount,
		Steps:     h.trail.Steps(paymentID),
	})
}

type addStockRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type stockResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddStock(w http.ResponseWriter, r *http.Request) {
	var req addStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.stock.Add(r.Context(), req.ProductID, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}

	quantity, err := h.stock.Get(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stockResponse{ProductID: req.ProductID, Quantity: quantity})
}

func (h *Handler) handleGetStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	quantity, err := h.stock.Get(r.Context(), productID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stockResponse{ProductID: productID, Quantity: quantity})
}

func (h *Handler) handleDependencyStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.conn.Info())
}

func (h *Handler) handleDependencyConnect(w http.ResponseWriter, r *http.Request) {
	h.conn.Connect()
	writeJSON(w, http.StatusOK, h.conn.Info())
}

func (h *Handler) handleDependencyDisconnect(w http.ResponseWriter, r *http.Request) {
	h.conn.Disconnect()
	writeJSON(w, http.StatusOK, h.conn.Info())
}

func (h *Handler) handleDependencyFail(w http.ResponseWriter, r *http.Request) {
	h.conn.SimulateFailure()
	writeJSON(w, http.StatusOK, h.conn.Info())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Kind: "Validation", Message: err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	message := err.Error()
	if kind == "Internal" {
		// Never leak dependency internals to clients.
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Kind: kind, Message: message})
}
