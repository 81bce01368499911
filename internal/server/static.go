package server

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const clientWASM = "s2eclient.wasm"

// staticFileServer serves the browser client build. Unlike pages it may be
// cached, but only briefly since a firmware-style update replaces it in place.
type staticFileServer struct {
	fileServer http.Handler
	fileSystem fs.FS
}

func newStaticFileServer(fsys fs.FS) *staticFileServer {
	return &staticFileServer{
		fileServer: http.FileServer(http.FS(fsys)),
		fileSystem: fsys,
	}
}

func (s *staticFileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	info, err := fs.Stat(s.fileSystem, name)
	if name == "" || err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	if path.Ext(name) == ".wasm" {
		w.Header().Set("Content-Type", "application/wasm")
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	s.fileServer.ServeHTTP(w, r)
}
