package adapthttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path"
	"strconv"

	"jobflow/internal/app"
	"jobflow/internal/domain"

	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a tagged error onto a status code and a client-safe body.
// Internal errors are logged; their message is only echoed outside production.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch domain.KindOf(err) {
	case domain.KindUnauthorized:
		msg := "Unauthorized"
		if errors.Is(err, app.ErrInvalidCredentials) {
			msg = domain.MessageOf(err)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": msg})
	case domain.KindValidation:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": domain.MessageOf(err)})
	case domain.KindNotFound:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
	case domain.KindConflict:
		writeJSON(w, http.StatusConflict, map[string]any{"error": domain.MessageOf(err)})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		body := map[string]any{"error": "Internal server error"}
		if !s.Production {
			body["details"] = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.Error{Kind: domain.KindValidation, Op: "http.decode", Msg: "invalid request body", Err: err}
	}
	return nil
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func spaFromDisk(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := path.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := path.Clean("/" + r.URL.Path)
		if reqPath != "/" {
			if fi, err := os.Stat(path.Join(dir, reqPath)); err == nil && !fi.IsDir() {
				fileServer.ServeHTTP(w, r)
				return
			}
		}
		http.ServeFile(w, r, indexPath)
	})
}
