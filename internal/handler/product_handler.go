package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"fieldsync/internal/domain"
	"fieldsync/pkg/response"
)

type ProductHandler struct{}

func NewProductHandler() *ProductHandler {
	return &ProductHandler{}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	response.Success(w, domain.SearchProducts(r.URL.Query().Get("q")))
}

// productFromRequest resolves the {productId} route variable against the
// catalog, writing a 404 when it is unknown.
func productFromRequest(w http.ResponseWriter, r *http.Request) (domain.Product, bool) {
	id := mux.Vars(r)["productId"]
	product, ok := domain.FindProduct(id)
	if !ok {
		response.NotFound(w, "Product not found")
		return domain.Product{}, false
	}
	return product, true
}
