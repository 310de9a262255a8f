package google

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

type authorizationResponse struct {
	Code  string
	State string
	Error string
}

// callbackReceiver accepts the single consent redirect on a loopback address.
type callbackReceiver struct {
	redirectURL string
	responses   chan authorizationResponse
	server      *http.Server
}

const successPage = `<html>
	<head><title>Authentication Successful</title></head>
	<body>
		<h1>Authentication Successful!</h1>
		<p>You can close this window and return to the terminal.</p>
		<script>window.setTimeout(function(){window.close();}, 2000);</script>
	</body>
</html>
`

// listenCallback starts a receiver for redirect. A zero port in redirect is
// replaced with the ephemeral port actually bound.
func listenCallback(redirect string) (*callbackReceiver, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL: %w", err)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("unable to listen for OAuth callback: %w", err)
	}

	port := ln.Addr().(*net.TCPAddr).Port
	u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))

	path := u.Path
	if path == "" {
		path = "/"
	}

	r := &callbackReceiver{
		redirectURL: u.String(),
		responses:   make(chan authorizationResponse, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, r.handle)

	r.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := r.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("OAuth callback server", "error", err)
		}
	}()

	return r, nil
}

func (r *callbackReceiver) handle(w http.ResponseWriter, rq *http.Request) {
	q := rq.URL.Query()
	response := authorizationResponse{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	}

	switch {
	case response.Error != "":
		http.Error(w, "Authorization failed: "+response.Error, http.StatusForbidden)
	case response.Code == "":
		http.Error(w, "Error: No authorization code received", http.StatusBadRequest)
		return
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, successPage)
	}

	// only the first redirect counts
	select {
	case r.responses <- response:
	default:
	}
}

func (r *callbackReceiver) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.server.Shutdown(ctx); err != nil {
		slog.Warn("OAuth callback server shutdown", "error", err)
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}
