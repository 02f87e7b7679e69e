package auth

import (
	"context"
	"net/http"

	"github.com/easytier/easytier-service/e2e/framework"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = framework.RegisterTestCase("auth", "easytier api tokens", func() {
	var f *framework.Framework
	ctx := context.Background()

	ginkgo.BeforeEach(func() {
		f = framework.NewDefaultFramework()
		framework.ExpectNoError(f.SetupTestDirectory())
		ginkgo.DeferCleanup(f.TeardownTestDirectory)
		framework.ExpectNoError(f.StartServer())
	})

	ginkgo.It("rejects requests without a token", func() {
		code, response, err := f.Request(ctx, http.MethodGet, "/v1/info", false, nil)
		framework.ExpectNoError(err)
		gomega.Expect(code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(response.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("adds tokens", func() {
		tokens := []string{}
		_, _, err := f.Request(ctx, http.MethodGet, "/v1/authToken", true, &tokens)
		framework.ExpectNoError(err)
		gomega.Expect(tokens).To(gomega.HaveLen(1))

		code, _, err := f.Request(ctx, http.MethodPost, "/v1/authToken", true, nil)
		framework.ExpectNoError(err)
		gomega.Expect(code).To(gomega.Equal(http.StatusOK))

		tokens = []string{}
		_, _, err = f.Request(ctx, http.MethodGet, "/v1/authToken", true, &tokens)
		framework.ExpectNoError(err)
		gomega.Expect(tokens).To(gomega.HaveLen(2))
	})
})
