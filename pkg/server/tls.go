package server

import (
	"crypto/tls"
	"fmt"
)

// LoadTLSConfig builds the server-side TLS configuration from a certificate
// and private key file. Called once at startup; a failure here is fatal.
func LoadTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load key pair from %s, %s: %w", certFile, keyFile, err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
