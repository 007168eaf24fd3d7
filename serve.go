package buildpipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// serveTask starts the local dev server. It is registered as a background
// task: the executor spawns it without awaiting, so the sequence completes
// while the server stays resident for the life of the process.
type serveTask struct {
	BaseTask
}

func newServeTask() Task {
	return &serveTask{
		BaseTask: NewBaseTask(TaskServe, "Serves built output with live reload"),
	}
}

// Execute implements Task.Execute. It blocks until the run context is
// cancelled.
func (t *serveTask) Execute(ctx *TaskContext) error {
	srv := NewDevServer(ctx.Options.Serve, ctx.Options.Watch, ctx.Logger)
	return srv.Run(ctx.GoContext)
}

// DevServer is a static file server with live reload. It serves the
// resolved base directory, watches the configured paths, and broadcasts a
// reload to connected browsers when files change.
type DevServer struct {
	opts   ServeOptions
	watch  WatchOptions
	logger Logger
	reload *reloadBroker
}

// NewDevServer creates a dev server bound to the resolved serve and watch
// sub-configurations.
func NewDevServer(opts ServeOptions, watch WatchOptions, logger Logger) *DevServer {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &DevServer{
		opts:   opts,
		watch:  watch,
		logger: logger,
		reload: newReloadBroker(logger),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *DevServer) Run(ctx context.Context) error {
	if s.opts.Server.BaseDir == "" {
		return fmt.Errorf("serve: no server base directory configured")
	}

	addr := net.JoinHostPort(s.opts.Server.Host, fmt.Sprintf("%d", s.opts.Server.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("serve: listening on %s: %w", addr, err)
	}

	server := &http.Server{Handler: s.Handler()}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	paths := s.watch.Paths
	if len(paths) == 0 {
		paths = []string{s.opts.Server.BaseDir}
	}
	go func() {
		err := watchPaths(watchCtx, paths, s.watch.Debounce, func(changed []string) {
			s.logger.Debug("Files changed: %v", changed)
			s.reload.broadcast(watchCtx)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("File watcher stopped: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Serving %s at http://%s", s.opts.Server.BaseDir, listener.Addr())

	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Handler returns the server's HTTP handler: the live reload endpoint plus
// the static file tree with the reload script injected into HTML responses.
func (s *DevServer) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.LiveReload {
		mux.HandleFunc("/livereload", s.reload.handle)
	}
	mux.Handle("/", s.staticHandler())
	return mux
}

// reloadSnippet is appended to served HTML pages so the browser reconnects
// and reloads when the watcher broadcasts a change.
const reloadSnippet = `<script>
(function () {
  var ws = new WebSocket("ws://" + location.host + "/livereload");
  ws.onmessage = function () { location.reload(); };
})();
</script>`

func (s *DevServer) staticHandler() http.Handler {
	root := s.opts.Server.BaseDir
	files := http.FileServer(http.Dir(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.opts.LiveReload {
			files.ServeHTTP(w, r)
			return
		}

		path := htmlFilePath(root, r.URL.Path)
		if path == "" {
			files.ServeHTTP(w, r)
			return
		}

		data, err := os.ReadFile(path)
		if err != nil {
			files.ServeHTTP(w, r)
			return
		}

		data = injectReloadSnippet(data)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

// htmlFilePath maps a request path to the HTML file it would serve, or ""
// when the request is not for an HTML page.
func htmlFilePath(root, urlPath string) string {
	clean := filepath.Clean("/" + urlPath)
	full := filepath.Join(root, clean)

	if strings.HasSuffix(urlPath, "/") || clean == string(filepath.Separator) {
		full = filepath.Join(full, "index.html")
	} else if filepath.Ext(full) != ".html" {
		return ""
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return ""
	}
	return full
}

// injectReloadSnippet places the reload script before </body> when
// present, otherwise appends it.
func injectReloadSnippet(page []byte) []byte {
	marker := []byte("</body>")
	if i := bytes.LastIndex(page, marker); i >= 0 {
		out := make([]byte, 0, len(page)+len(reloadSnippet))
		out = append(out, page[:i]...)
		out = append(out, reloadSnippet...)
		out = append(out, page[i:]...)
		return out
	}
	return append(page, reloadSnippet...)
}
