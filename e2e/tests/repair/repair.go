package repair

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/easytier/easytier-service/e2e/framework"
	"github.com/easytier/easytier-service/pkg/requirement"
	"github.com/easytier/easytier-service/pkg/server"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = RepairDescribe("easytier toolset synchronization", func() {
	ginkgo.Context("repairing the installation", ginkgo.Label("repair"), func() {
		var f *framework.Framework
		ctx := context.Background()

		ginkgo.BeforeEach(func() {
			framework.SkipOnWindows()

			f = framework.NewDefaultFramework()
			framework.ExpectNoError(f.SetupTestDirectory())
			ginkgo.DeferCleanup(f.TeardownTestDirectory)
		})

		ginkgo.It("installs everything into an empty base directory", func() {
			f.PublishRelease("v2.0.0")
			f.PublishRelease("v1.0.0")
			framework.ExpectNoError(f.StartServer())

			check := &server.Check{}
			code, _, err := f.Request(ctx, http.MethodGet, "/v1/check", true, check)
			framework.ExpectNoError(err)
			gomega.Expect(code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(check.Release).NotTo(gomega.BeNil())
			gomega.Expect(check.Release.TagName).To(gomega.Equal("v2.0.0"))
			gomega.Expect(check.Release.Assets).To(gomega.HaveLen(1))
			gomega.Expect(check.Release.Assets[0].Name).To(gomega.Equal(f.AssetName("v2.0.0")))

			repair := &server.Repair{}
			code, response, err := f.Request(ctx, http.MethodPost, "/v1/repair", true, repair)
			framework.ExpectNoError(err)
			gomega.Expect(code).To(gomega.Equal(http.StatusOK), response.Msg)
			gomega.Expect(repair.Version.Core).To(gomega.HaveValue(gomega.Equal("v2.0.0")))
			gomega.Expect(repair.Version.Cli).To(gomega.HaveValue(gomega.Equal("v2.0.0")))
			gomega.Expect(f.Releases.Downloads(f.AssetName("v2.0.0"))).To(gomega.Equal(1))

			matches, err := filepath.Glob(filepath.Join(f.TestDirectory, ".download-*.zip"))
			framework.ExpectNoError(err)
			gomega.Expect(matches).To(gomega.BeEmpty())

			check = &server.Check{}
			_, _, err = f.Request(ctx, http.MethodGet, "/v1/check", true, check)
			framework.ExpectNoError(err)
			gomega.Expect(check.Release).To(gomega.BeNil())

			info := &server.Info{}
			_, _, err = f.Request(ctx, http.MethodGet, "/v1/info", true, info)
			framework.ExpectNoError(err)
			gomega.Expect(info.OS).To(gomega.Equal(f.Platform.OS))
			gomega.Expect(info.List).To(gomega.HaveLen(1))
			gomega.Expect(info.List[0].Version.Core).To(gomega.HaveValue(gomega.Equal("v2.0.0")))
		})

		ginkgo.It("only restores the missing cli", func() {
			f.PublishRelease("v2.0.0")
			framework.ExpectNoError(f.StartServer())

			oldCore := []byte("#!/bin/sh\necho \"easytier-core v1.0.0\"\n")
			seedDir := ginkgo.GinkgoT().TempDir()
			framework.ExpectNoError(os.WriteFile(filepath.Join(seedDir, "easytier-core"), oldCore, 0o755))
			framework.ExpectNoError(f.SeedInstallation(seedDir))

			repair := &server.Repair{}
			code, response, err := f.Request(ctx, http.MethodPost, "/v1/repair", true, repair)
			framework.ExpectNoError(err)
			gomega.Expect(code).To(gomega.Equal(http.StatusOK), response.Msg)
			gomega.Expect(repair.Version.Core).To(gomega.HaveValue(gomega.Equal("v1.0.0")))
			gomega.Expect(repair.Version.Cli).To(gomega.HaveValue(gomega.Equal("v2.0.0")))

			core, err := os.ReadFile(filepath.Join(f.InstallDir(), "easytier-core"))
			framework.ExpectNoError(err)
			gomega.Expect(core).To(gomega.Equal(oldCore))

			repair = &server.Repair{}
			code, _, err = f.Request(ctx, http.MethodPost, "/v1/repair?force=true", true, repair)
			framework.ExpectNoError(err)
			gomega.Expect(code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(repair.Version.Core).To(gomega.HaveValue(gomega.Equal("v2.0.0")))
			gomega.Expect(f.Releases.Downloads(f.AssetName("v2.0.0"))).To(gomega.Equal(2))
		})

		ginkgo.It("replaces only the files selected by the bitmask", func() {
			f.PublishRelease("v2.0.0")
			framework.ExpectNoError(f.StartServer())

			seedDir := ginkgo.GinkgoT().TempDir()
			for _, name := range []string{"easytier-core", "easytier-cli"} {
				script := []byte("#!/bin/sh\necho \"" + name + " v1.0.0\"\n")
				framework.ExpectNoError(os.WriteFile(filepath.Join(seedDir, name), script, 0o755))
			}
			framework.ExpectNoError(f.SeedInstallation(seedDir))

			mask := requirement.Encode(requirement.Cli)
			repair := &server.Repair{}
			code, response, err := f.Request(ctx, http.MethodPost, fmt.Sprintf("/v1/repair?files=%d", mask), true, repair)
			framework.ExpectNoError(err)
			gomega.Expect(code).To(gomega.Equal(http.StatusOK), response.Msg)
			gomega.Expect(repair.Version.Core).To(gomega.HaveValue(gomega.Equal("v1.0.0")))
			gomega.Expect(repair.Version.Cli).To(gomega.HaveValue(gomega.Equal("v2.0.0")))
		})

		ginkgo.It("does nothing for a complete installation", func() {
			f.PublishRelease("v2.0.0")
			framework.ExpectNoError(f.StartServer())

			_, _, err := f.Request(ctx, http.MethodPost, "/v1/repair", true, &server.Repair{})
			framework.ExpectNoError(err)

			repair := &server.Repair{}
			code, _, err := f.Request(ctx, http.MethodPost, "/v1/repair", true, repair)
			framework.ExpectNoError(err)
			gomega.Expect(code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(f.Releases.Downloads(f.AssetName("v2.0.0"))).To(gomega.Equal(1))
		})

		ginkgo.It("fails without releases", func() {
			framework.ExpectNoError(f.StartServer())

			check := &server.Check{}
			code, _, err := f.Request(ctx, http.MethodGet, "/v1/check", true, check)
			framework.ExpectNoError(err)
			gomega.Expect(code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(check.Release).To(gomega.BeNil())

			code, response, err := f.Request(ctx, http.MethodPost, "/v1/repair", true, nil)
			framework.ExpectNoError(err)
			gomega.Expect(code).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(response.Msg).To(gomega.ContainSubstring("no release available"))
		})
	})
})
