package api

import (
	"net/http"
	"os"
	"path"
)

// spaFileSystem serves the embedded console and falls back to index.html
// for client-side routes. Missing assets under /api or with an extension
// stay 404.
type spaFileSystem struct {
	root http.FileSystem
}

func (s *spaFileSystem) Open(name string) (http.File, error) {
	f, err := s.root.Open(name)
	if os.IsNotExist(err) && path.Ext(name) == "" {
		return s.root.Open("index.html")
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
