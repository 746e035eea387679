package admin

import (
	"net/http"

	"karma_server/api/middleware"
	"karma_server/handling"
	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := handling.ParseLimit(r, 10)
	if err != nil {
		handling.HandleError(err, "Invalid limit", ar.logger, w)
		return
	}

	orders, err := ar.adminService.ListOrders(r.Context(), middleware.ActorID(r.Context()), limit)
	if err != nil {
		handling.HandleError(err, "Failed to list orders", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(orders), gecho.Send())
}

func (ar *AdminRoutesManager) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid order id", ar.logger, w)
		return
	}

	order, err := ar.adminService.GetOrder(r.Context(), middleware.ActorID(r.Context()), id)
	if err != nil {
		handling.HandleError(err, "Failed to fetch order", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(order), gecho.Send())
}

func (ar *AdminRoutesManager) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid order id", ar.logger, w)
		return
	}
	body, err := lib.ExtractAndValidateBody[structs.UpdateOrderStatusRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	if err := ar.adminService.UpdateOrderStatus(r.Context(), middleware.ActorID(r.Context()), id, body.Status); err != nil {
		handling.HandleError(err, "Failed to update order status", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Order status updated successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := ar.adminService.Stats(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		handling.HandleError(err, "Failed to compute statistics", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(stats), gecho.Send())
}
