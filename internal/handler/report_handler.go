package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"fieldsync/internal/domain"
	"fieldsync/internal/export"
	"fieldsync/internal/logger"
	"fieldsync/internal/middleware"
	"fieldsync/internal/service"
	"fieldsync/pkg/response"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	product, ok := productFromRequest(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.ReportFilter{
		Status: domain.ReportStatus(strings.TrimSpace(q.Get("status"))),
		Query:  q.Get("q"),
		Sort:   domain.SortDesc,
	}
	switch sort := domain.SortOrder(strings.ToLower(q.Get("sort"))); sort {
	case "", domain.SortDesc:
	case domain.SortAsc:
		filter.Sort = sort
	default:
		response.BadRequest(w, "sort must be asc or desc")
		return
	}

	reports, err := h.reportService.List(r.Context(), middleware.GetUserID(r), product.ID, filter)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, reports)
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, ok := productFromRequest(w, r)
	if !ok {
		return
	}

	report, err := h.reportService.Get(r.Context(), middleware.GetUserID(r), product.ID, mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, report)
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	product, ok := productFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.reportService.Create(r.Context(), middleware.GetUserID(r), product.ID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, result)
}

func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	product, ok := productFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.reportService.Update(r.Context(), middleware.GetUserID(r), product.ID, mux.Vars(r)["id"], &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	product, ok := productFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.reportService.Delete(r.Context(), middleware.GetUserID(r), product.ID, mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	product, ok := productFromRequest(w, r)
	if !ok {
		return
	}

	reports, err := h.reportService.List(r.Context(), middleware.GetUserID(r), product.ID, domain.ReportFilter{Sort: domain.SortDesc})
	if err != nil {
		response.FromError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReports(&buf, reports); err != nil {
		logger.Log.Error("failed to export reports", zap.String("product_id", product.ID), zap.Error(err))
		response.InternalError(w, "Failed to export reports")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(product, time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
