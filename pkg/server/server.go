package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/easytier/easytier-service/pkg/install"
	"github.com/easytier/easytier-service/pkg/platform"
	"github.com/easytier/easytier-service/pkg/release"
	"github.com/easytier/easytier-service/pkg/requirement"
	"github.com/easytier/easytier-service/pkg/toolset"
	"github.com/easytier/easytier-service/pkg/version"
	"github.com/gorilla/handlers"
	"github.com/julienschmidt/httprouter"
	"github.com/loft-sh/log"
	"github.com/sirupsen/logrus"
)

var (
	routeHealth    = "/health"
	routeInfo      = "/v1/info"
	routeCheck     = "/v1/check"
	routeRepair    = "/v1/repair"
	routeAuthToken = "/v1/authToken"
)

// Manager is the part of the toolset manager the api needs
type Manager interface {
	Dir() string
	State() toolset.State
	IsInstalled() bool
	Version(ctx context.Context) (*install.Version, error)
	CheckForUpdate(ctx context.Context) (*release.Release, error)
	EnsureInstalled(ctx context.Context, forceFullReplace bool) (*install.Version, error)
	InstallRoles(ctx context.Context, roles []requirement.Role) (*install.Version, error)
}

// TokenStore manages the tokens that protect the api
type TokenStore interface {
	Tokens(ctx context.Context) ([]string, error)
	Add(ctx context.Context) (string, error)
	Valid(ctx context.Context, token string) (bool, error)
}

type Options struct {
	Host string
	Port int

	DisableAuth bool
}

type Server struct {
	options    Options
	manager    Manager
	tokens     TokenStore
	platform   *platform.Descriptor
	repairLock *toolset.DirLock
	handler    http.Handler
	log        log.Logger
}

func NewServer(options Options, manager Manager, tokens TokenStore, descriptor *platform.Descriptor, log log.Logger) *Server {
	s := &Server{
		options:    options,
		manager:    manager,
		tokens:     tokens,
		platform:   descriptor,
		repairLock: toolset.NewDirLock(manager.Dir()),
		log:        log,
	}

	router := httprouter.New()
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, i interface{}) {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("panic: %v", i))
		s.log.Error(fmt.Errorf("panic: %v", i), string(debug.Stack()))
	}
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Errorf("route %s not found", r.URL.Path))
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path))
	})
	router.GET(routeHealth, s.health)
	router.GET(routeInfo, s.auth(s.info))
	router.GET(routeCheck, s.auth(s.check))
	router.POST(routeRepair, s.auth(s.repair))
	router.GET(routeAuthToken, s.auth(s.listTokens))
	router.POST(routeAuthToken, s.auth(s.addToken))

	handler := handlers.LoggingHandler(log.Writer(logrus.DebugLevel, true), router)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(panicLogger{log: s.log}), handlers.PrintRecoveryStack(true))(handler)
	s.handler = handler
	return s
}

// Handler returns the http handler of the api
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.options.Host, strconv.Itoa(s.options.Port))
}

// ListenAndServe serves the api until ctx is done
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: s.handler,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s", srv.Addr)

		// always returns error. ErrServerClosed on graceful close
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		} else {
			errChan <- nil
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		_ = srv.Shutdown(context.Background())
		return nil
	}
}

type panicLogger struct {
	log log.Logger
}

func (r panicLogger) Println(args ...interface{}) {
	r.log.Error(args...)
}

func (s *Server) auth(next httprouter.Handle) httprouter.Handle {
	if s.options.DisableAuth {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("missing bearer token"))
			return
		}

		valid, err := s.tokens.Valid(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		} else if !valid {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid token"))
			return
		}

		next(w, r, params)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func (s *Server) health(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) info(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	list := []Instance{}
	if s.manager.IsInstalled() {
		v, err := s.manager.Version(r.Context())
		if err != nil && !errdefs.IsNotInstalled(err) {
			s.log.Warnf("read version: %v", err)
		} else if err == nil {
			// a single installation is supported for now
			list = append(list, Instance{Version: *v})
		}
	}

	writeData(w, &Info{
		Version: version.GetVersion(),
		OS:      s.platform.OS,
		Arch:    s.platform.Arch,
		State:   s.manager.State(),
		List:    list,
	})
}

func (s *Server) check(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	latest, err := s.manager.CheckForUpdate(r.Context())
	if err != nil {
		s.log.Errorf("check for update: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeData(w, &Check{Release: latest})
}

// repair installs the missing files. force=true replaces every file and files=<mask> replaces
// exactly the files whose roles are set in the bitmask, which takes precedence over force.
func (s *Server) repair(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	query := r.URL.Query()
	force := false
	if value := query.Get("force"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid force value %q", value))
			return
		}
		force = parsed
	}

	var roles []requirement.Role
	if value := query.Get("files"); value != "" {
		mask, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid files value %q", value))
			return
		}
		roles = s.platform.DecodeRoles(mask)
	}

	var v *install.Version
	err := s.repairLock.Do(r.Context(), func() error {
		var err error
		if roles != nil {
			v, err = s.manager.InstallRoles(r.Context(), roles)
		} else {
			v, err = s.manager.EnsureInstalled(r.Context(), force)
		}
		return err
	})
	if err != nil {
		s.log.Errorf("repair easytier failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.log.Info("repair easytier success")
	writeData(w, &Repair{Version: *v})
}

func (s *Server) listTokens(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	tokens, err := s.tokens.Tokens(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeData(w, tokens)
}

func (s *Server) addToken(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	_, err := s.tokens.Add(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, &Response{Code: http.StatusOK})
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, &Response{Code: http.StatusOK, Data: data})
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, &Response{Code: code, Msg: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, response *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}
