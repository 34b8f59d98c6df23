// Package tlsclient builds the HTTP client used to reach the repository when
// it is served over TLS with a private CA, a client certificate, or a pinned
// key.
package tlsclient

import (
	"bytes"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Options are the TLS settings of the repository endpoint. The values can
// also come from the environment, with EnvPrefix: <prefix>_CA, <prefix>_CERT,
// <prefix>_KEY, <prefix>_FINGERPRINT and <prefix>_VALIDATE.
type Options struct {
	Timeout   time.Duration
	EnvPrefix string

	RootCAFile             string
	CertificateFile        string
	KeyFile                string
	PinnedKey              string
	InsecureSkipValidation bool
}

type tlsConfig struct {
	clientCertificates []tls.Certificate
	rootCAs            []*x509.Certificate
	pinnedKeys         [][]byte
	skipVerification   bool
}

// NewHTTPClient returns an HTTP client configured with the options.
func NewHTTPClient(opt Options) (*http.Client, error) {
	c := &tlsConfig{}
	if opt.EnvPrefix != "" {
		opt = fromEnv(opt, opt.EnvPrefix)
	}
	if opt.RootCAFile != "" {
		if err := c.loadRootCAFile(opt.RootCAFile); err != nil {
			return nil, err
		}
	}
	if opt.CertificateFile != "" {
		if err := c.loadClientCertificateFile(opt.CertificateFile, opt.KeyFile); err != nil {
			return nil, err
		}
	}
	if opt.PinnedKey != "" {
		if err := c.addHexPinnedKey(opt.PinnedKey); err != nil {
			return nil, err
		}
	}
	c.skipVerification = opt.InsecureSkipValidation
	return &http.Client{
		Timeout: opt.Timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: c.config(),
		},
	}, nil
}

// fromEnv fills the empty options with the env variables.
func fromEnv(opt Options, prefix string) Options {
	if opt.RootCAFile == "" {
		opt.RootCAFile = os.Getenv(prefix + "_CA")
	}
	if opt.CertificateFile == "" && opt.KeyFile == "" {
		opt.CertificateFile = os.Getenv(prefix + "_CERT")
		opt.KeyFile = os.Getenv(prefix + "_KEY")
	}
	if opt.PinnedKey == "" {
		opt.PinnedKey = os.Getenv(prefix + "_FINGERPRINT")
	}
	if t := os.Getenv(prefix + "_VALIDATE"); t == "0" || t == "false" || t == "FALSE" {
		opt.InsecureSkipValidation = true
	}
	return opt
}

func (s *tlsConfig) loadClientCertificateFile(certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("tlsclient: could not load client certificate file: %w", err)
	}
	s.clientCertificates = append(s.clientCertificates, cert)
	return nil
}

func (s *tlsConfig) loadRootCAFile(rootCAFile string) error {
	pemCerts, err := os.ReadFile(rootCAFile)
	if err != nil {
		return fmt.Errorf("tlsclient: could not load root CA file %q: %w", rootCAFile, err)
	}
	for len(pemCerts) > 0 {
		var block *pem.Block
		block, pemCerts = pem.Decode(pemCerts)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" || len(block.Headers) != 0 {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			continue
		}
		s.rootCAs = append(s.rootCAs, cert)
	}
	if len(s.rootCAs) == 0 {
		return fmt.Errorf("tlsclient: no certificate in the root CA file %q", rootCAFile)
	}
	return nil
}

func (s *tlsConfig) addHexPinnedKey(hexPinnedKey string) error {
	pinnedKey, err := hex.DecodeString(hexPinnedKey)
	if err != nil {
		return fmt.Errorf("tlsclient: invalid hexadecimal fingerprint: %w", err)
	}
	if len(pinnedKey) != sha256.Size {
		return fmt.Errorf("tlsclient: invalid fingerprint size for %s, expected %d got %d",
			hexPinnedKey, sha256.Size, len(pinnedKey))
	}
	s.pinnedKeys = append(s.pinnedKeys, pinnedKey)
	return nil
}

func (s *tlsConfig) config() *tls.Config {
	conf := &tls.Config{InsecureSkipVerify: s.skipVerification} // #nosec
	if len(s.rootCAs) > 0 {
		pool := x509.NewCertPool()
		for _, cert := range s.rootCAs {
			pool.AddCert(cert)
		}
		conf.RootCAs = pool
	}
	if len(s.clientCertificates) > 0 {
		conf.Certificates = append([]tls.Certificate(nil), s.clientCertificates...)
	}
	if len(s.pinnedKeys) > 0 {
		conf.VerifyPeerCertificate = verifyPinnedKey(s.pinnedKeys)
	}
	return conf
}

// verifyPinnedKey accepts the connection if the leaf, or the first
// certificate of a verified chain, has one of the pinned public keys.
func verifyPinnedKey(pinnedKeys [][]byte) func([][]byte, [][]*x509.Certificate) error {
	matches := func(cert *x509.Certificate) bool {
		fingerPrint := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
		for _, pinnedKey := range pinnedKeys {
			if bytes.Equal(pinnedKey, fingerPrint[:]) {
				return true
			}
		}
		return false
	}
	return func(certs [][]byte, verifiedChains [][]*x509.Certificate) error {
		for _, asn1 := range certs {
			cert, err := x509.ParseCertificate(asn1)
			if err != nil {
				return err
			}
			if matches(cert) {
				return nil
			}
		}
		for _, chain := range verifiedChains {
			if len(chain) > 0 && matches(chain[0]) {
				return nil
			}
		}
		return fmt.Errorf("tlsclient: could not find the valid pinned key from proposed ones")
	}
}
