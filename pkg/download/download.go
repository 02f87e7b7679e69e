package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/pkg/errors"
)

// MirrorURL routes rawURL through the given mirror by prefixing it. An empty mirror
// returns rawURL unchanged.
func MirrorURL(mirror, rawURL string) string {
	if mirror == "" {
		return rawURL
	}

	return strings.TrimSuffix(mirror, "/") + "/" + rawURL
}

// File streams rawURL into target. A partially written target is removed on failure.
func File(ctx context.Context, client *http.Client, rawURL, userAgent, target string) error {
	err := file(ctx, client, rawURL, userAgent, target)
	if err != nil {
		_ = os.Remove(target)
		return errdefs.Download(err)
	}

	return nil
}

func file(ctx context.Context, client *http.Client, rawURL, userAgent, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "download file")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("received status code %d when trying to download %s", resp.StatusCode, rawURL)
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "create %s", target)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return errors.Wrapf(err, "write %s", target)
	}

	return out.Close()
}
