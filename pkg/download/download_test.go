package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/easytier/easytier-service/pkg/errdefs"
	"gotest.tools/assert"
)

func TestMirrorURL(t *testing.T) {
	url := "https://github.com/easytier/easytier/releases/download/v1/app.zip"
	assert.Equal(t, url, MirrorURL("", url))
	assert.Equal(t, "https://ghp.ci/"+url, MirrorURL("https://ghp.ci", url))
	assert.Equal(t, "https://ghp.ci/"+url, MirrorURL("https://ghp.ci/", url))
}

func TestFile(t *testing.T) {
	userAgent := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	target := filepath.Join(t.TempDir(), "file")
	err := File(context.Background(), server.Client(), server.URL+"/file", "EasytierService", target)
	assert.NilError(t, err)
	assert.Equal(t, "EasytierService", userAgent)

	content, err := os.ReadFile(target)
	assert.NilError(t, err)
	assert.Equal(t, "payload", string(content))

	err = File(context.Background(), server.Client(), server.URL+"/missing", "", target)
	assert.Assert(t, errdefs.IsDownload(err), "unexpected error %v", err)
	_, err = os.Stat(target)
	assert.Assert(t, os.IsNotExist(err))
}
