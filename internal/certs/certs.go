// Package certs manages the self-signed certificate used when the settings
// server listens over TLS.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	certFileName = "server.crt"
	keyFileName  = "server.key"

	// DefaultValidity is how long a generated certificate stays valid.
	DefaultValidity = 365 * 24 * time.Hour
	// renewBefore regenerates certificates that expire within this window.
	renewBefore = 7 * 24 * time.Hour
)

// ErrCertificateUnusable marks a stored certificate that must be replaced.
var ErrCertificateUnusable = errors.New("certificate unusable")

// Manager provides the server certificate.
type Manager interface {
	GetOrCreateCertificate() (tls.Certificate, error)
}

// FileManager keeps a certificate and key pair in a directory.
type FileManager struct {
	now      func() time.Time
	certDir  string
	certFile string
	keyFile  string
	hosts    []string
	validity time.Duration
}

// Option configures a FileManager.
type Option func(*FileManager)

// WithHosts adds DNS names or IP addresses to the certificate.
func WithHosts(hosts ...string) Option {
	return func(m *FileManager) {
		m.hosts = append(m.hosts, hosts...)
	}
}

// WithValidity overrides DefaultValidity.
func WithValidity(d time.Duration) Option {
	return func(m *FileManager) {
		m.validity = d
	}
}

// WithClock replaces the clock used for validity checks.
func WithClock(now func() time.Time) Option {
	return func(m *FileManager) {
		m.now = now
	}
}

// NewFileManager creates a manager storing its files in certDir. The
// certificate always covers localhost and the loopback addresses.
func NewFileManager(certDir string, opts ...Option) *FileManager {
	m := &FileManager{
		now:      time.Now,
		certDir:  certDir,
		certFile: filepath.Join(certDir, certFileName),
		keyFile:  filepath.Join(certDir, keyFileName),
		hosts:    []string{"localhost", "127.0.0.1", "::1"},
		validity: DefaultValidity,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TLSConfig returns a server TLS configuration using the managed certificate.
func TLSConfig(m Manager) (*tls.Config, error) {
	cert, err := m.GetOrCreateCertificate()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// GetOrCreateCertificate loads the stored certificate, replacing it when it
// is missing, unreadable, about to expire or does not cover the hosts.
func (m *FileManager) GetOrCreateCertificate() (tls.Certificate, error) {
	cert, err := m.load()
	if err == nil {
		return cert, nil
	}
	if !errors.Is(err, os.ErrNotExist) && !errors.Is(err, ErrCertificateUnusable) {
		return tls.Certificate{}, err
	}
	return m.generate()
}

// Paths returns the certificate and key file locations.
func (m *FileManager) Paths() (certFile, keyFile string) {
	return m.certFile, m.keyFile
}

func (m *FileManager) load() (tls.Certificate, error) {
	for _, f := range []string{m.certFile, m.keyFile} {
		if _, err := os.Stat(f); err != nil {
			return tls.Certificate{}, err
		}
	}

	cert, err := tls.LoadX509KeyPair(m.certFile, m.keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %w", ErrCertificateUnusable, err)
	}
	if err := m.verify(cert); err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %w", ErrCertificateUnusable, err)
	}
	return cert, nil
}

func (m *FileManager) verify(cert tls.Certificate) error {
	if len(cert.Certificate) == 0 {
		return errors.New("no certificate in chain")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	now := m.now()
	if now.Before(leaf.NotBefore) {
		return errors.New("certificate not yet valid")
	}
	if now.Add(renewBefore).After(leaf.NotAfter) {
		return errors.New("certificate expires soon")
	}
	for _, host := range m.hosts {
		if err := leaf.VerifyHostname(host); err != nil {
			return fmt.Errorf("certificate does not cover %s: %w", host, err)
		}
	}
	return nil
}

func (m *FileManager) generate() (tls.Certificate, error) {
	if err := os.MkdirAll(m.certDir, 0o700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate private key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := m.now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"inbox-triage"}, CommonName: "localhost"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(m.validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, host := range m.hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to encode private key: %w", err)
	}

	if err := writePEM(m.certFile, "CERTIFICATE", der); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(m.keyFile, "EC PRIVATE KEY", keyDER); err != nil {
		return tls.Certificate{}, err
	}

	return tls.LoadX509KeyPair(m.certFile, m.keyFile)
}

func writePEM(path, blockType string, der []byte) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
