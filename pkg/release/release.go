package release

import (
	"sort"
	"time"

	"github.com/google/go-github/v30/github"
)

// Release is a published version of the upstream project
type Release struct {
	TagName     string    `json:"tagName"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
	CreatedAt   time.Time `json:"createdAt"`
	PublishedAt time.Time `json:"publishedAt"`
	ID          int64     `json:"id"`
	Assets      []Asset   `json:"assets"`
}

// Asset is a downloadable artifact of a release
type Asset struct {
	Name               string    `json:"name"`
	Size               int       `json:"size"`
	DownloadCount      int       `json:"downloadCount"`
	BrowserDownloadURL string    `json:"browserDownloadUrl"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// FirstAsset returns the first asset of the release
func (r *Release) FirstAsset() (*Asset, bool) {
	if len(r.Assets) == 0 {
		return nil, false
	}

	return &r.Assets[0], true
}

// Latest returns the first release of the list, which upstream orders most recent first
func Latest(releases []Release) (*Release, bool) {
	if len(releases) == 0 {
		return nil, false
	}

	return &releases[0], true
}

// SortByPublished orders the releases by publication time, most recent first
func SortByPublished(releases []Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].PublishedAt.After(releases[j].PublishedAt)
	})
}

// FilterAssets returns the assets that match. The input is left untouched.
func FilterAssets(assets []Asset, match func(name string) bool) []Asset {
	filtered := []Asset{}
	for _, asset := range assets {
		if match(asset.Name) {
			filtered = append(filtered, asset)
		}
	}

	return filtered
}

func fromGitHub(rel *github.RepositoryRelease) Release {
	r := Release{
		TagName:     rel.GetTagName(),
		Name:        rel.GetName(),
		Prerelease:  rel.GetPrerelease(),
		Draft:       rel.GetDraft(),
		CreatedAt:   rel.GetCreatedAt().Time,
		PublishedAt: rel.GetPublishedAt().Time,
		ID:          rel.GetID(),
		Assets:      make([]Asset, 0, len(rel.Assets)),
	}
	for _, asset := range rel.Assets {
		r.Assets = append(r.Assets, Asset{
			Name:               asset.GetName(),
			Size:               asset.GetSize(),
			DownloadCount:      asset.GetDownloadCount(),
			BrowserDownloadURL: asset.GetBrowserDownloadURL(),
			CreatedAt:          asset.GetCreatedAt().Time,
			UpdatedAt:          asset.GetUpdatedAt().Time,
		})
	}

	return r
}
