package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alphabot-ai/boxshare/internal/assets"
	"github.com/alphabot-ai/boxshare/internal/auth"
	"github.com/alphabot-ai/boxshare/internal/config"
	"github.com/alphabot-ai/boxshare/internal/model"
	"github.com/alphabot-ai/boxshare/internal/rate"
	"github.com/alphabot-ai/boxshare/internal/store"

	_ "github.com/alphabot-ai/boxshare/docs" // swagger docs

	httpSwagger "github.com/swaggo/http-swagger"
)

const multipartMemory = 8 << 20

// BoxStore is the box collection the handlers operate on.
type BoxStore interface {
	Create(ctx context.Context, in model.NewBox) (model.Box, error)
	PickRandomAvailable(ctx context.Context) (model.Box, error)
	Get(ctx context.Context, id string) (model.Box, error)
	Flag(ctx context.Context, id string) (model.Box, error)
	Unflag(ctx context.Context, id string) (model.Box, error)
	Delete(ctx context.Context, id string) (model.Box, error)
	ListFlagged(ctx context.Context) ([]model.Box, error)
	Stats(ctx context.Context) (model.Stats, error)
}

type Server struct {
	boxes   BoxStore
	assets  assets.Storage
	admin   *auth.AdminGate
	limiter rate.Limiter
	cfg     config.Config
	log     logrus.FieldLogger
	handler http.Handler
}

func NewServer(boxes BoxStore, assetStore assets.Storage, admin *auth.AdminGate, limiter rate.Limiter, cfg config.Config, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		boxes:   boxes,
		assets:  assetStore,
		admin:   admin,
		limiter: limiter,
		cfg:     cfg,
		log:     log,
	}
	s.handler = s.logRequests(withCORS(http.HandlerFunc(s.route)))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	switch {
	case strings.HasPrefix(p, "/api/"):
		s.handleAPI(w, r)
	case strings.HasPrefix(p, assets.Prefix):
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w)
			return
		}
		s.serveAsset(w, r)
	case strings.HasPrefix(p, "/swagger/"):
		httpSwagger.WrapHandler.ServeHTTP(w, r)
	case p == "/healthz":
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	default:
		notFound(w)
	}
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(strings.TrimPrefix(r.URL.Path, "/api"))

	switch {
	case len(segments) == 1 && segments[0] == "upload":
		if r.Method == http.MethodPost {
			s.handleUpload(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "box":
		if r.Method == http.MethodGet {
			s.handleRandomBox(w, r)
			return
		}
		if r.Method == http.MethodPost {
			s.handleUpload(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "box":
		if r.Method == http.MethodGet {
			s.handleGetBox(w, r, segments[1])
			return
		}
	case len(segments) == 2 && segments[0] == "flag":
		if r.Method == http.MethodPost {
			s.handleFlag(w, r, segments[1])
			return
		}
	case len(segments) == 2 && segments[0] == "admin" && segments[1] == "flags":
		if r.Method == http.MethodGet {
			s.handleAdminFlags(w, r)
			return
		}
	case len(segments) == 3 && segments[0] == "admin" && segments[1] == "unflag":
		if r.Method == http.MethodPost {
			s.handleAdminUnflag(w, r, segments[2])
			return
		}
	case len(segments) == 3 && segments[0] == "admin" && segments[1] == "delete":
		if r.Method == http.MethodDelete {
			s.handleAdminDelete(w, r, segments[2])
			return
		}
	case len(segments) == 1 && segments[0] == "stats":
		if r.Method == http.MethodGet {
			s.handleStats(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "version":
		if r.Method == http.MethodGet {
			s.handleVersion(w, r)
			return
		}
	default:
		notFound(w)
		return
	}

	methodNotAllowed(w)
}

// handleUpload godoc
//
//	@Summary		Upload a box
//	@Description	Create an image, audio or code box. Image and audio boxes need a file; code boxes need a code snippet or a file.
//	@Tags			Boxes
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			title	formData	string	true	"Box title"
//	@Param			author	formData	string	false	"Author name"
//	@Param			type	formData	string	true	"Box type"	Enums(image, audio, code)
//	@Param			code	formData	string	false	"Code snippet (code boxes)"
//	@Param			file	formData	file	false	"Asset file"
//	@Success		200		{object}	map[string]any		"Box created"
//	@Failure		400		{object}	map[string]string	"Invalid input"
//	@Failure		413		{object}	map[string]string	"Upload too large"
//	@Failure		429		{object}	map[string]string	"Rate limited"
//	@Router			/api/upload [post]
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, r, "upload", s.cfg.RateLimits.UploadPerMinute) {
		return
	}
	if s.cfg.MaxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("upload too large"))
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	in := model.NewBox{
		Title:  r.FormValue("title"),
		Author: r.FormValue("author"),
		Type:   model.BoxType(strings.ToLower(strings.TrimSpace(r.FormValue("type")))),
		Code:   r.FormValue("code"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		if err := checkMedia(in.Type, header.Filename, file); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		ref, err := s.assets.Put(r.Context(), header.Filename, file)
		if err != nil {
			s.internalError(w, r, "store asset", err)
			return
		}
		in.AssetRef = ref
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		writeError(w, http.StatusBadRequest, err)
		return
	}

	box, err := s.boxes.Create(r.Context(), in)
	if err != nil {
		if in.AssetRef != "" {
			if rmErr := s.assets.Remove(r.Context(), in.AssetRef); rmErr != nil {
				s.log.WithError(rmErr).WithField("asset", in.AssetRef).Warn("remove rejected upload")
			}
		}
		if store.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.internalError(w, r, "create box", err)
		return
	}

	s.log.WithFields(logrus.Fields{"box": box.ID, "type": box.Type}).Info("box created")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "box": box})
}

// handleRandomBox godoc
//
//	@Summary		Get a random box
//	@Description	Returns one unflagged box chosen uniformly at random.
//	@Tags			Boxes
//	@Produce		json
//	@Success		200	{object}	model.Box
//	@Failure		404	{object}	map[string]string	"No boxes available"
//	@Router			/api/box [get]
func (s *Server) handleRandomBox(w http.ResponseWriter, r *http.Request) {
	box, err := s.boxes.PickRandomAvailable(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("No boxes available"))
			return
		}
		s.internalError(w, r, "pick box", err)
		return
	}
	writeJSON(w, http.StatusOK, box)
}

// handleGetBox godoc
//
//	@Summary		Get a box
//	@Tags			Boxes
//	@Produce		json
//	@Param			id	path		string	true	"Box ID"
//	@Success		200	{object}	model.Box
//	@Failure		404	{object}	map[string]string	"Box not found"
//	@Router			/api/box/{id} [get]
func (s *Server) handleGetBox(w http.ResponseWriter, r *http.Request, id string) {
	box, err := s.boxes.Get(r.Context(), id)
	if err == nil && box.IsFlagged {
		err = store.ErrBoxNotFound
	}
	if err != nil {
		s.writeStoreError(w, r, "get box", err)
		return
	}
	writeJSON(w, http.StatusOK, box)
}

// handleFlag godoc
//
//	@Summary		Flag a box
//	@Description	Marks a box for moderator review and hides it from random retrieval.
//	@Tags			Boxes
//	@Produce		json
//	@Param			id	path		string	true	"Box ID"
//	@Success		200	{object}	map[string]bool		"Box flagged"
//	@Failure		404	{object}	map[string]string	"Box not found"
//	@Failure		429	{object}	map[string]string	"Rate limited"
//	@Router			/api/flag/{id} [post]
func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request, id string) {
	if !s.allowRateLimit(w, r, "flag", s.cfg.RateLimits.FlagPerMinute) {
		return
	}
	if _, err := s.boxes.Flag(r.Context(), id); err != nil {
		s.writeStoreError(w, r, "flag box", err)
		return
	}
	s.log.WithField("box", id).Info("box flagged")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAdminFlags godoc
//
//	@Summary		List flagged boxes
//	@Description	Requires X-Admin-Secret header.
//	@Tags			Admin
//	@Produce		json
//	@Param			X-Admin-Secret	header		string	true	"Admin secret"
//	@Success		200				{array}		model.Box
//	@Failure		403				{object}	map[string]string	"Unauthorized"
//	@Router			/api/admin/flags [get]
func (s *Server) handleAdminFlags(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	boxes, err := s.boxes.ListFlagged(r.Context())
	if err != nil {
		s.internalError(w, r, "list flagged", err)
		return
	}
	writeJSON(w, http.StatusOK, boxes)
}

// handleAdminUnflag godoc
//
//	@Summary		Unflag a box
//	@Description	Requires X-Admin-Secret header.
//	@Tags			Admin
//	@Produce		json
//	@Param			X-Admin-Secret	header		string	true	"Admin secret"
//	@Param			id				path		string	true	"Box ID"
//	@Success		200				{object}	map[string]bool		"Box unflagged"
//	@Failure		403				{object}	map[string]string	"Unauthorized"
//	@Failure		404				{object}	map[string]string	"Box not found"
//	@Router			/api/admin/unflag/{id} [post]
func (s *Server) handleAdminUnflag(w http.ResponseWriter, r *http.Request, id string) {
	if !s.requireAdmin(w, r) {
		return
	}
	if _, err := s.boxes.Unflag(r.Context(), id); err != nil {
		s.writeStoreError(w, r, "unflag box", err)
		return
	}
	s.log.WithField("box", id).Info("box unflagged")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAdminDelete godoc
//
//	@Summary		Delete a box
//	@Description	Removes the box and its stored asset. Requires X-Admin-Secret header.
//	@Tags			Admin
//	@Produce		json
//	@Param			X-Admin-Secret	header		string	true	"Admin secret"
//	@Param			id				path		string	true	"Box ID"
//	@Success		200				{object}	map[string]bool		"Box deleted"
//	@Failure		403				{object}	map[string]string	"Unauthorized"
//	@Failure		404				{object}	map[string]string	"Box not found"
//	@Router			/api/admin/delete/{id} [delete]
func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request, id string) {
	if !s.requireAdmin(w, r) {
		return
	}
	if _, err := s.boxes.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, r, "delete box", err)
		return
	}
	s.log.WithField("box", id).Info("box deleted")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleStats godoc
//
//	@Summary		Get box statistics
//	@Tags			Stats
//	@Produce		json
//	@Success		200	{object}	model.Stats
//	@Router			/api/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.boxes.Stats(r.Context())
	if err != nil {
		s.internalError(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.cfg.Version,
		"commit":     s.cfg.Commit,
		"build_time": s.cfg.BuildTime,
	})
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	rc, err := s.assets.Open(r.Context(), r.URL.Path)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			notFound(w)
			return
		}
		s.internalError(w, r, "open asset", err)
		return
	}
	defer rc.Close()

	name := path.Base(r.URL.Path)
	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if !inlineSafe(ctype) {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		w.Header().Set("Content-Security-Policy", "sandbox")
	}

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, time.Time{}, rs)
		return
	}
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.Copy(w, rc)
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if err := s.admin.Authorize(r.Header.Get(auth.HeaderAdminSecret)); err != nil {
		s.log.WithField("ip", s.clientIP(r)).Warn("admin request rejected")
		writeError(w, http.StatusForbidden, errors.New("Unauthorized"))
		return false
	}
	return true
}

func (s *Server) allowRateLimit(w http.ResponseWriter, r *http.Request, action string, limit int) bool {
	if limit <= 0 || s.limiter == nil {
		return true
	}
	window := s.cfg.RateLimits.Window
	if window <= 0 {
		window = time.Minute
	}
	key := fmt.Sprintf("%s:ip:%s", action, s.clientIP(r))
	if ok, retry := s.limiter.Allow(r.Context(), key, limit, window); !ok {
		writeRateLimit(w, retry)
		return false
	}
	return true
}

// clientIP reads X-Forwarded-For only when TrustProxy is set.
func (s *Server) clientIP(r *http.Request) string {
	if s.cfg.TrustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			parts := strings.Split(forwarded, ",")
			return strings.TrimSpace(parts[0])
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.New("Box not found"))
		return
	}
	s.internalError(w, r, op, err)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{"op": op, "path": r.URL.Path}).Error("request failed")
	writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeRateLimit(w http.ResponseWriter, retry time.Duration) {
	secs := int((retry + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate limit exceeded",
		"retry_after": secs,
	})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, errors.New("not found"))
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
