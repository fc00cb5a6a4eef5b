package category_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nfrais/notes-de-frais/internal/category"
)

var _ = Describe("Handler", func() {
	It("serves the full registry for client pickers", func() {
		handler := category.NewHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
		rec := httptest.NewRecorder()
		handler.GetCategories(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var resp category.RegistryResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Categories).To(HaveLen(8))
		Expect(resp.DiversSubAccounts).To(HaveLen(12))
		Expect(resp.SalonSubTypes).To(HaveLen(3))
	})
})
