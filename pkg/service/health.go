package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	merry2 "github.com/ansel1/merry/v2"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
)

const (
	httpProbeTimeout = 10 * time.Second
	smtpProbeTimeout = 5 * time.Second
)

// httpHealthy performs a plain GET and accepts any 2xx answer. The
// upstream images all expose an unauthenticated liveness endpoint, so
// nothing more than net/http is needed here.
func httpHealthy(ctx context.Context, url string) error {
	client := &http.Client{Timeout: httpProbeTimeout}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return merry2.Prepend(err, "failed to build health request")
	}

	response, err := client.Do(request)
	if err != nil {
		return merry2.Prependf(err, "health endpoint '%s' unreachable", url)
	}

	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return merry2.Errorf("health endpoint '%s' answered %d", url, response.StatusCode)
	}

	return nil
}

// httpHealthyBody is httpHealthy plus the response body, for endpoints
// whose payload needs inspection (e.g. the Elasticsearch cluster color).
func httpHealthyBody(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: httpProbeTimeout}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, merry2.Prepend(err, "failed to build health request")
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, merry2.Prependf(err, "health endpoint '%s' unreachable", url)
	}

	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, merry2.Errorf("health endpoint '%s' answered %d", url, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, merry2.Prepend(err, "failed to read health response")
	}

	return body, nil
}

// smtpBannerHealthy dials an SMTP port and expects the 220 greeting.
func smtpBannerHealthy(address string) error {
	conn, err := net.DialTimeout("tcp", address, smtpProbeTimeout)
	if err != nil {
		return merry2.Prependf(err, "smtp endpoint '%s' unreachable", address)
	}

	defer func() { _ = conn.Close() }()

	if err = conn.SetReadDeadline(time.Now().Add(smtpProbeTimeout)); err != nil {
		return merry2.Prepend(err, "failed to set smtp read deadline")
	}

	banner, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return merry2.Prependf(err, "failed to read smtp banner from '%s'", address)
	}

	if !strings.HasPrefix(banner, "220") {
		return merry2.Errorf("unexpected smtp banner from '%s': %q", address, banner)
	}

	return nil
}

func localProbeURL(port int, path string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", port, path)
}

func isNotFound(err error) bool {
	return k8serrors.IsNotFound(err)
}
