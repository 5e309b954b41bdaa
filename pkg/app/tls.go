package app

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

// runDomainServers serves HTTPS on :443 with Let's Encrypt certificates and
// answers ACME challenges plus HTTPS redirects on :80.
func runDomainServers(ctx context.Context, domain string, handler http.Handler, logger *zap.Logger) error {
	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domain),
		Cache:      autocert.DirCache(certCacheDir()),
	}

	httpsServer := newHTTPServer(":443", handler)
	httpsServer.TLSConfig = &tls.Config{
		GetCertificate: manager.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1", "acme-tls/1"},
		MinVersion:     tls.VersionTLS12,
	}

	httpRedirect := &http.Server{
		Addr: ":80",
		Handler: manager.HTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := "https://" + domain + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})),
	}

	logger.Info("HTTPS server starting", zap.String("domain", domain), zap.String("cert_cache", certCacheDir()))
	return serveUntilDone(ctx, logger, map[*http.Server]func() error{
		httpsServer:  func() error { return httpsServer.ListenAndServeTLS("", "") },
		httpRedirect: httpRedirect.ListenAndServe,
	})
}

// certCacheDir keeps issued certificates across restarts.
func certCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "bakeshop", "autocert")
	}
	return filepath.Join(os.TempDir(), "bakeshop-autocert")
}
