package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
)

// T is the part of testing.TB the helpers need, so ginkgo suites can use them as well
type T interface {
	Helper()
	Fatalf(format string, args ...interface{})
	Cleanup(func())
}

// Entry is a file or folder of a test archive
type Entry struct {
	Name    string
	Content string
	Mode    os.FileMode
}

// Script returns an executable entry that prints "<printName> <version>" when run
func Script(name, printName, version string) Entry {
	return Entry{
		Name:    name,
		Content: fmt.Sprintf("#!/bin/sh\necho \"%s %s\"\n", printName, version),
		Mode:    0o755,
	}
}

// Zip builds a zip archive from the entries. Names ending in / become folders.
func Zip(t T, entries ...Entry) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)
	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate}
		mode := entry.Mode
		if mode == 0 {
			mode = 0o644
		}
		if len(entry.Name) > 0 && entry.Name[len(entry.Name)-1] == '/' {
			mode |= os.ModeDir
		}
		header.SetMode(mode)

		w, err := writer.CreateHeader(header)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", entry.Name, err)
		}
		if _, err := w.Write([]byte(entry.Content)); err != nil {
			t.Fatalf("write zip entry %s: %v", entry.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}

// WriteZip writes a zip archive built from entries to path
func WriteZip(t T, path string, entries ...Entry) {
	t.Helper()

	if err := os.WriteFile(path, Zip(t, entries...), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}
}

// ReleaseAsset is an asset served by NewReleaseServer
type ReleaseAsset struct {
	Name    string
	Archive []byte
}

// ReleaseServer fakes the GitHub releases api and serves the asset archives
type ReleaseServer struct {
	*httptest.Server

	m          sync.Mutex
	releases   []map[string]interface{}
	assets     map[string][]byte
	downloads  map[string]int
	userAgents []string
}

// NewReleaseServer starts a fake api that serves the given releases for owner/repo
func NewReleaseServer(t T, owner, repo string) *ReleaseServer {
	t.Helper()

	s := &ReleaseServer{
		releases:  []map[string]interface{}{},
		assets:    map[string][]byte{},
		downloads: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(fmt.Sprintf("/repos/%s/%s/releases", owner, repo), func(w http.ResponseWriter, r *http.Request) {
		s.m.Lock()
		defer s.m.Unlock()

		s.userAgents = append(s.userAgents, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.releases)
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		s.m.Lock()
		defer s.m.Unlock()

		name := filepath.Base(r.URL.Path)
		archive, ok := s.assets[name]
		if !ok {
			http.NotFound(w, r)
			return
		}

		s.downloads[name]++
		_, _ = w.Write(archive)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AddRelease appends a release with the given assets. Releases are served in the order they were added.
func (s *ReleaseServer) AddRelease(tag string, assets ...ReleaseAsset) {
	s.m.Lock()
	defer s.m.Unlock()

	assetList := []map[string]interface{}{}
	for _, asset := range assets {
		s.assets[asset.Name] = asset.Archive
		assetList = append(assetList, map[string]interface{}{
			"name":                 asset.Name,
			"size":                 len(asset.Archive),
			"download_count":       0,
			"browser_download_url": s.URL + "/download/" + asset.Name,
			"created_at":           "2024-01-01T00:00:00Z",
			"updated_at":           "2024-01-01T00:00:00Z",
		})
	}

	s.releases = append(s.releases, map[string]interface{}{
		"tag_name":     tag,
		"name":         tag,
		"prerelease":   false,
		"draft":        false,
		"created_at":   "2024-01-01T00:00:00Z",
		"published_at": "2024-01-01T00:00:00Z",
		"id":           len(s.releases) + 1,
		"assets":       assetList,
	})
}

// Downloads returns how often the asset was downloaded
func (s *ReleaseServer) Downloads(name string) int {
	s.m.Lock()
	defer s.m.Unlock()

	return s.downloads[name]
}

// UserAgents returns the user agent of every api request
func (s *ReleaseServer) UserAgents() []string {
	s.m.Lock()
	defer s.m.Unlock()

	return append([]string{}, s.userAgents...)
}
