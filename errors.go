/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Seednode/gamechooser/games"
	"github.com/rs/zerolog/log"
)

var errBadRequest = errors.New("malformed request body")

// newPage renders a bare page whose body links back to the home page under
// prefix.
func newPage(prefix, title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"%s/\">%s</a></body></html>", prefix, body))

	return htmlBody.String()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, games.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, games.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, games.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, games.ErrNoCandidates):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("writing response")
	}
}

// writeError answers with {"error": ...}. Unrecognized errors are logged
// and hidden behind a generic message.
func writeError(cfg *Config, w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("client", realIP(r)).Msg("unhandled error")
		msg = "An unexpected error occurred"
	}

	writeJSON(cfg, w, status, map[string]string{"error": msg})
}
