package contratacao

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultClientTimeout = time.Second * 10

type clientOpts struct {
	httpClient *http.Client
}

type ClientOpt func(o *clientOpts)

func WithHTTPClient(httpClient *http.Client) ClientOpt {
	return func(o *clientOpts) {
		o.httpClient = httpClient
	}
}

// NewHTTPPropostaClient talks to the proposta service over its REST API
func NewHTTPPropostaClient(baseURL string, opts ...ClientOpt) PropostaClient {
	cOpts := &clientOpts{}

	for _, o := range opts {
		o(cOpts)
	}

	httpClient := cOpts.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultClientTimeout}
	}

	return &httpPropostaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type httpPropostaClient struct {
	baseURL    string
	httpClient *http.Client
}

func (c *httpPropostaClient) ObterProposta(ctx context.Context, propostaID string) (*Proposta, error) {
	if propostaID == "" {
		return nil, errors.New("ID da proposta é obrigatório")
	}

	url := fmt.Sprintf("%s/api/propostas/%s", c.baseURL, propostaID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for proposta %s", propostaID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching proposta %s", propostaID)
	}

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("proposta service returned %d for proposta %s", resp.StatusCode, propostaID)
	}

	proposta := &Proposta{}
	if err := json.NewDecoder(resp.Body).Decode(proposta); err != nil {
		return nil, errors.Wrapf(err, "decoding proposta %s", propostaID)
	}

	return proposta, nil
}
