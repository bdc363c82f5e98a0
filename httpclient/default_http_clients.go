package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"log"
	"net"
	"net/http"
	"time"

	"code.cloudfoundry.org/tlsconfig"
)

var (
	DefaultClient = CreateDefaultClientInsecureSkipVerify()
	defaultDialer = ProxyDialFuncFromEnvironment((&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).Dial)
)

//counterfeiter:generate . Client

type Client interface {
	Do(*http.Request) (*http.Response, error)
}

func CreateDefaultClient(certPool *x509.CertPool) *http.Client {
	insecureSkipVerify := false
	return factory{}.New(insecureSkipVerify, certPool)
}

func CreateDefaultClientInsecureSkipVerify() *http.Client {
	insecureSkipVerify := true
	return factory{}.New(insecureSkipVerify, nil)
}

// NewMutualTLSClient presents identity to servers signed by caCertPool.
func NewMutualTLSClient(identity tls.Certificate, caCertPool *x509.CertPool, serverName string) *http.Client {
	tlsConfig, err := tlsconfig.Build(
		tlsconfig.WithInternalServiceDefaults(),
		tlsconfig.WithIdentity(identity),
	).Client(
		tlsconfig.WithAuthority(caCertPool),
		tlsconfig.WithServerName(serverName),
	)
	if err != nil {
		log.Fatal(err)
	}

	return &http.Client{
		Transport: newTransport(tlsConfig),
		Timeout:   10 * time.Second,
	}
}

type factory struct{}

func (f factory) New(insecureSkipVerify bool, certPool *x509.CertPool) *http.Client {
	tlsConfig, err := tlsconfig.Build(
		tlsconfig.WithInternalServiceDefaults(),
		WithInsecureSkipVerify(insecureSkipVerify),
	).Client(tlsconfig.WithAuthority(certPool))
	if err != nil {
		log.Fatal(err)
	}

	return &http.Client{
		Transport: newTransport(tlsConfig),
	}
}

func newTransport(tlsConfig *tls.Config) *http.Transport {
	return &http.Transport{
		TLSClientConfig: tlsConfig,
		Proxy:           http.ProxyFromEnvironment,
		Dial:            defaultDialer,

		TLSHandshakeTimeout: 30 * time.Second,
		DisableKeepAlives:   true,
	}
}

func WithInsecureSkipVerify(insecureSkipVerify bool) tlsconfig.TLSOption {
	return func(config *tls.Config) error {
		config.InsecureSkipVerify = insecureSkipVerify
		return nil
	}
}
