package buildpipe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func devServerForDir(t *testing.T, dir string, liveReload bool) *DevServer {
	t.Helper()
	return NewDevServer(ServeOptions{
		Server:     ServerOptions{BaseDir: dir},
		LiveReload: liveReload,
	}, WatchOptions{}, &TestLogger{t})
}

func get(t *testing.T, server *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := server.Client().Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestDevServerServesStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o644))

	server := httptest.NewServer(devServerForDir(t, dir, true).Handler())
	defer server.Close()

	status, body := get(t, server, "/app.css")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "body{}", body)
	assert.NotContains(t, body, "livereload")
}

func TestDevServerInjectsReloadScript(t *testing.T) {
	dir := t.TempDir()
	page := "<html><body><h1>hi</h1></body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o644))

	server := httptest.NewServer(devServerForDir(t, dir, true).Handler())
	defer server.Close()

	status, body := get(t, server, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "livereload")
	// The snippet lands before the closing body tag.
	assert.Less(t, strings.Index(body, "livereload"), strings.Index(body, "</body>"))
}

func TestDevServerSkipsInjectionWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))

	server := httptest.NewServer(devServerForDir(t, dir, false).Handler())
	defer server.Close()

	_, body := get(t, server, "/")
	assert.NotContains(t, body, "livereload")
}

func TestLiveReloadBroadcast(t *testing.T) {
	dir := t.TempDir()
	srv := devServerForDir(t, dir, true)

	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/livereload"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Registration happens inside the handler goroutine.
	require.Eventually(t, func() bool {
		return srv.reload.clientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	srv.reload.broadcast(ctx)

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Equal(t, "reload", string(data))
}

func TestInjectReloadSnippetWithoutBodyTag(t *testing.T) {
	out := injectReloadSnippet([]byte("<p>fragment</p>"))
	assert.Contains(t, string(out), "livereload")
	assert.True(t, strings.HasPrefix(string(out), "<p>fragment</p>"))
}

func TestHTMLFilePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "page.html"), []byte("x"), 0o644))

	assert.Equal(t, filepath.Join(dir, "index.html"), htmlFilePath(dir, "/"))
	assert.Equal(t, filepath.Join(dir, "sub", "page.html"), htmlFilePath(dir, "/sub/page.html"))
	assert.Empty(t, htmlFilePath(dir, "/app.css"))
	assert.Empty(t, htmlFilePath(dir, "/missing.html"))
}
