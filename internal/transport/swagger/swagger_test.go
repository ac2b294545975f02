package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/store-auth/internal/transport/swagger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OpenAPI document", func() {
	It("loads and validates", func() {
		doc, err := swagger.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Info.Title).NotTo(BeEmpty())
	})

	DescribeTable("documents every route",
		func(path, method string) {
			doc, err := swagger.Load(context.Background())
			Expect(err).NotTo(HaveOccurred())
			item := doc.Paths.Value(path)
			Expect(item).NotTo(BeNil(), path)
			Expect(item.GetOperation(method)).NotTo(BeNil(), method+" "+path)
		},
		Entry(nil, "/auth/login", http.MethodPost),
		Entry(nil, "/auth/refresh", http.MethodPost),
		Entry(nil, "/auth/logout", http.MethodPost),
		Entry(nil, "/auth/verify-email", http.MethodGet),
		Entry(nil, "/users/me", http.MethodGet),
		Entry(nil, "/admin/store-owners", http.MethodPost),
		Entry(nil, "/stores", http.MethodPost),
		Entry(nil, "/stores/{storeID}/members", http.MethodPost),
		Entry(nil, "/stores/{storeID}/members/{userID}/permissions/{code}", http.MethodPut),
		Entry(nil, "/stores/{storeID}/access", http.MethodGet),
		Entry(nil, "/health", http.MethodGet),
	)

	It("serves the raw document as yaml", func() {
		rec := httptest.NewRecorder()
		swagger.SpecHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, swagger.SpecPath, nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))
		Expect(rec.Body.String()).To(HavePrefix("openapi: 3.0.3"))
	})
})
