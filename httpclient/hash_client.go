package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/cloudfoundry/bosh-multidigest/api"
	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	"github.com/cloudfoundry/bosh-multidigest/hashservice"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
)

const hashClientLogTag = "hashClient"

// HashClient runs the hashing operations on a remote server. Paths are
// resolved on the server's file system. Transport failures are reported
// in the responses like any other failure.
type HashClient struct {
	client   Client
	endpoint string
	logger   boshlog.Logger
}

var _ hashservice.Service = HashClient{}

func NewHashClient(client Client, endpoint string, logger boshlog.Logger) HashClient {
	return HashClient{
		client:   client,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		logger:   logger,
	}
}

func (c HashClient) ComputeFileHash(ctx context.Context, path string, algorithms []string) hashservice.FileHashResponse {
	var response hashservice.FileHashResponse

	err := c.post(ctx, api.HashPath, api.HashRequest{FilePath: path, Algorithms: algorithms}, &response)
	if err != nil {
		return hashservice.FileHashResponse{Success: false, Error: err.Error()}
	}

	return response
}

func (c HashClient) ComputeBatchHashes(ctx context.Context, paths []string, algorithms []string) hashservice.BatchHashResponse {
	var response hashservice.BatchHashResponse

	err := c.post(ctx, api.BatchPath, api.BatchRequest{FilePaths: paths, Algorithms: algorithms}, &response)
	if err != nil {
		return hashservice.BatchHashResponse{Success: false, Error: err.Error()}
	}

	return response
}

func (c HashClient) ScanDirectory(dir string) hashservice.ScanDirectoryResponse {
	var response hashservice.ScanDirectoryResponse

	err := c.post(context.Background(), api.ScanPath, api.ScanRequest{DirPath: dir}, &response)
	if err != nil {
		return hashservice.ScanDirectoryResponse{Success: false, Error: err.Error()}
	}

	return response
}

func (c HashClient) Algorithms(ctx context.Context) ([]string, error) {
	var response api.AlgorithmsResponse

	err := c.do(ctx, http.MethodGet, api.AlgorithmsPath, nil, &response)
	if err != nil {
		return nil, err
	}

	return response.Algorithms, nil
}

func (c HashClient) post(ctx context.Context, path string, request, response interface{}) error {
	body, err := json.Marshal(request)
	if err != nil {
		return bosherr.WrapError(err, "Marshalling request")
	}

	return c.do(ctx, http.MethodPost, path, body, response)
}

func (c HashClient) do(ctx context.Context, method, path string, body []byte, response interface{}) error {
	url := c.endpoint + path

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return bosherr.WrapErrorf(err, "Creating request %s %s", method, url)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug(hashClientLogTag, "Sending %s %s", method, url)

	resp, err := c.client.Do(req)
	if err != nil {
		return bosherr.WrapErrorf(err, "Sending request %s %s", method, url)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return bosherr.WrapErrorf(err, "Reading response of %s %s", method, url)
	}

	if resp.StatusCode != http.StatusOK {
		var errResponse api.ErrorResponse
		if json.Unmarshal(respBody, &errResponse) == nil && errResponse.Error != "" {
			return bosherr.Errorf("Request %s %s failed with status %d: %s", method, url, resp.StatusCode, errResponse.Error)
		}
		return bosherr.Errorf("Request %s %s failed with status %d", method, url, resp.StatusCode)
	}

	err = json.Unmarshal(respBody, response)
	if err != nil {
		return bosherr.WrapErrorf(err, "Unmarshalling response of %s %s", method, url)
	}

	return nil
}
