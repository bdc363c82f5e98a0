package httpclient

import (
	"net"
	"net/url"
	"os"

	goproxy "golang.org/x/net/proxy"
)

const AllProxyEnvVar = "MULTIDIGEST_ALL_PROXY"

type DialFunc func(network, address string) (net.Conn, error)

func (f DialFunc) Dial(network, address string) (net.Conn, error) { return f(network, address) }

// ProxyDialFuncFromEnvironment routes connections through the proxy URL in
// MULTIDIGEST_ALL_PROXY (for example socks5://localhost:1080), skipping
// hosts listed in no_proxy. Unparseable settings fall back to origDialer.
func ProxyDialFuncFromEnvironment(origDialer DialFunc) DialFunc {
	allProxy := os.Getenv(AllProxyEnvVar)
	if len(allProxy) == 0 {
		return origDialer
	}

	proxyURL, err := url.Parse(allProxy)
	if err != nil {
		return origDialer
	}

	proxy, err := goproxy.FromURL(proxyURL, origDialer)
	if err != nil {
		return origDialer
	}

	noProxy := os.Getenv("no_proxy")
	if len(noProxy) == 0 {
		return proxy.Dial
	}

	perHost := goproxy.NewPerHost(proxy, origDialer)
	perHost.AddFromString(noProxy)

	return perHost.Dial
}
