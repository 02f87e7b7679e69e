package release

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/google/go-github/v30/github"
	"github.com/loft-sh/log"
	"github.com/pkg/errors"
)

// DefaultUserAgent identifies the service against the GitHub api
const DefaultUserAgent = "EasytierService"

// Options configures a catalog client
type Options struct {
	Owner string
	Repo  string

	// BaseURL overrides the GitHub api endpoint, e.g. for GitHub Enterprise or tests
	BaseURL   string
	UserAgent string

	// SortByPublished sorts releases instead of trusting the api order
	SortByPublished bool

	// MatchAsset narrows each release's assets when listing with filterToPlatform
	MatchAsset func(name string) bool
}

// Client lists the releases of the upstream project
type Client struct {
	gh      *github.Client
	options Options
	log     log.Logger
}

// NewClient creates a new catalog client
func NewClient(httpClient *http.Client, options Options, log log.Logger) (*Client, error) {
	gh := github.NewClient(httpClient)
	if options.BaseURL != "" {
		baseURL := options.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}

		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, errors.Wrapf(err, "parse base url %s", options.BaseURL)
		}
		gh.BaseURL = parsed
	}

	if options.UserAgent == "" {
		options.UserAgent = DefaultUserAgent
	}
	gh.UserAgent = options.UserAgent

	return &Client{
		gh:      gh,
		options: options,
		log:     log,
	}, nil
}

// ListReleases fetches the releases of the upstream project, most recent first. With filterToPlatform
// every release keeps only the assets accepted by MatchAsset.
func (c *Client) ListReleases(ctx context.Context, filterToPlatform bool) ([]Release, error) {
	c.log.Debugf("List releases of %s/%s", c.options.Owner, c.options.Repo)
	ghReleases, _, err := c.gh.Repositories.ListReleases(ctx, c.options.Owner, c.options.Repo, nil)
	if err != nil {
		if isDecodeError(err) {
			return nil, errdefs.Decode(errors.Wrap(err, "decode releases"))
		}

		return nil, errdefs.Network(errors.Wrap(err, "list releases"))
	}

	releases := make([]Release, 0, len(ghReleases))
	for _, ghRelease := range ghReleases {
		rel := fromGitHub(ghRelease)
		if filterToPlatform && c.options.MatchAsset != nil {
			rel.Assets = FilterAssets(rel.Assets, c.options.MatchAsset)
		}
		releases = append(releases, rel)
	}

	if c.options.SortByPublished {
		SortByPublished(releases)
	}

	c.log.Debugf("Found %d releases", len(releases))
	return releases, nil
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
