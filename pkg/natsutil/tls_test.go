/*
 * Copyright 2025 the EdgeFleet Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package natsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgefleet/edgefleet/pkg/models"
)

// writeTestCert generates a self-signed certificate and key pair.
func writeTestCert(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "edgefleet-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "cert.pem")
	certOut, err := os.Create(certFile)
	require.NoError(t, err)
	require.NoError(t, pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: der}))
	require.NoError(t, certOut.Close())

	keyBytes, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	keyFile = filepath.Join(dir, "key.pem")
	keyOut, err := os.Create(keyFile)
	require.NoError(t, err)
	require.NoError(t, pem.Encode(keyOut, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes}))
	require.NoError(t, keyOut.Close())

	return certFile, keyFile
}

func TestTLSConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	certFile, keyFile := writeTestCert(t, dir)

	cfg := &models.NATSConfig{
		CertFile: certFile,
		KeyFile:  keyFile,
		CAFile:   certFile,
	}

	tlsConf, err := TLSConfig(cfg)
	require.NoError(t, err)
	assert.Len(t, tlsConf.Certificates, 1)
	assert.NotNil(t, tlsConf.RootCAs)
	assert.Equal(t, uint16(tls.VersionTLS13), tlsConf.MinVersion)
}

func TestTLSConfig_MissingClientCert(t *testing.T) {
	t.Parallel()

	cfg := &models.NATSConfig{
		CertFile: filepath.Join(t.TempDir(), "nope.pem"),
		KeyFile:  filepath.Join(t.TempDir(), "nope-key.pem"),
	}

	_, err := TLSConfig(cfg)
	require.Error(t, err)
}

func TestTLSConfig_MalformedCA(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	certFile, keyFile := writeTestCert(t, dir)

	caFile := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(caFile, []byte("not a certificate"), 0o600))

	cfg := &models.NATSConfig{
		CertFile: certFile,
		KeyFile:  keyFile,
		CAFile:   caFile,
	}

	_, err := TLSConfig(cfg)
	require.ErrorIs(t, err, ErrCAParsingFailed)
}
