/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"embed"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

//go:embed assets/*
var assets embed.FS

func serveHomePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/index.html")
		if err != nil {
			errs <- err

			return
		}

		data = bytes.ReplaceAll(data, []byte("{{prefix}}"), []byte(cfg.prefix))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveAssets(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := path.Join("assets", path.Clean("/"+p.ByName("filepath")))

		data, err := assets.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		switch strings.ToLower(path.Ext(fname)) {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		case ".html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		logf("SERVE: Asset %s (%s) to %s", fname, formatSize(written), realIP(r))
	}
}

// registerHome serves the browser client at / and at /room/:code, the
// invite link form.
func registerHome(cfg *Config, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveHomePage(cfg, errs))
	mux.GET(cfg.prefix+"/room/:code", serveHomePage(cfg, errs))
	mux.GET(cfg.prefix+"/assets/*filepath", serveAssets(cfg, errs))
}
