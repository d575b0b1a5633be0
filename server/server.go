package server

import (
	"crypto/tls"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"

	"github.com/jarbasai/jarbas/handlers"
)

type Config struct {
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func SetupRoutes(chatHandler *handlers.ChatHandler, uploadHandler *handlers.UploadHandler, storageDir string) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/chat", chatHandler.ProcessChat).Methods("POST")
	api.HandleFunc("/ask", chatHandler.AskQuestion).Methods("POST")
	api.HandleFunc("/vector-ask", chatHandler.VectorAsk).Methods("POST")
	api.Handle("/documents", uploadHandler).Methods("POST")

	r.HandleFunc("/health", chatHandler.HealthCheck).Methods("GET")
	r.HandleFunc("/", chatHandler.Root).Methods("GET")

	// Synthesized audio artifacts are served straight from disk.
	r.PathPrefix("/storage/").Handler(
		http.StripPrefix("/storage/", http.FileServer(http.Dir(storageDir))))

	return r
}

// ServeProduction build the server when we operate in a production environment.
func ServeProduction(n *negroni.Negroni, cfg Config) {
	// Configure autocert settings
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Listen for HTTP requests on port 80 in a new goroutine. Use
	// autocertManager.HTTPHandler(nil) as the handler. This will send ACME
	// "http-01" challenge responses as necessary, and 302 redirect all other
	// requests to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":80",
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	// Configure the TLS config to use the autocertManager.GetCertificate function.
	tlsConfig := &tls.Config{
		GetCertificate:           autocertManager.GetCertificate,
		PreferServerCipherSuites: true,
		CurvePreferences:         []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPSPort,
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	err := srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	log.Fatal(err)
}

// ServeDevelopment start the server when we operate in a dev environment.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
