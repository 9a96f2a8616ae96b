package main

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	"github.com/ridloal/gym-membership-service/internal/platform/config"
	"github.com/ridloal/gym-membership-service/internal/platform/logger"
)

func newSingleHostReverseProxy(targetHost string) (*httputil.ReverseProxy, error) {
	targetURL, err := url.Parse(targetHost)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target URL '%s': %w", targetHost, err)
	}
	if targetURL.Scheme == "" || targetURL.Host == "" {
		return nil, fmt.Errorf("target URL '%s' must include scheme and host", targetHost)
	}

	proxy := httputil.NewSingleHostReverseProxy(targetURL)
	proxy.ErrorHandler = func(rw http.ResponseWriter, req *http.Request, err error) {
		logger.Error("Gateway: proxy error", err, "method", req.Method, "path", req.URL.Path, "target", targetURL.String())
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusBadGateway)
		_, _ = rw.Write([]byte(`{"error":"Service unavailable or proxy error"}`))
	}
	return proxy, nil
}

func main() {
	cfg := config.LoadGatewayConfig()
	logger.Setup(os.Stdout, os.Getenv("LOG_LEVEL"))
	logger.Info("Starting API Gateway on port " + cfg.ListenPort)

	mux := http.NewServeMux()

	// Services expect the full path, so prefixes are not stripped.
	serviceMappings := map[string]string{
		"/api/v1/members":  cfg.MemberServiceURL,
		"/api/v1/members/": cfg.MemberServiceURL,
	}

	for pathPrefix, targetHost := range serviceMappings {
		proxy, err := newSingleHostReverseProxy(targetHost)
		if err != nil {
			logger.Error("Failed to create reverse proxy", err, "prefix", pathPrefix, "target", targetHost)
			os.Exit(1)
		}
		mux.Handle(pathPrefix, proxy)
		logger.Info(fmt.Sprintf("Routing %s to %s", pathPrefix, targetHost))
	}

	server := &http.Server{
		Addr:              ":" + cfg.ListenPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info(fmt.Sprintf("API Gateway successfully configured and listening on :%s", cfg.ListenPort))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API Gateway failed to start or crashed", err)
	}
}
