package opensearch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	osgo "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/opensearch-project/opensearch-go/v4/signer/awsv2"

	"github.com/kailas-cloud/searchgate/internal/engine"
)

// Compile-time check: Client implements engine.Client.
var _ engine.Client = (*Client)(nil)

// AuthType selects how requests are authenticated.
type AuthType string

const (
	// AuthNone sends unauthenticated requests.
	AuthNone AuthType = "none"
	// AuthBasic uses HTTP basic credentials.
	AuthBasic AuthType = "basic"
	// AuthAWS signs requests with SigV4 using the default credential chain.
	AuthAWS AuthType = "aws"
)

// DefaultAWSService is the SigV4 service name for managed OpenSearch domains.
const DefaultAWSService = "es"

// Config holds connection parameters for an OpenSearch cluster.
type Config struct {
	Addresses []string
	Auth      AuthType
	Username  string
	Password  string
	Region    string
	Service   string

	// VerifyHostname disables certificate verification when false.
	VerifyHostname bool
	CAFile         string
}

// Client implements engine.Client via opensearch-go.
type Client struct {
	api *opensearchapi.Client
}

// NewClient creates an OpenSearch client. For AuthAWS the default AWS
// credential chain is loaded once here.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("addresses is required")
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	osCfg := osgo.Config{
		Addresses: cfg.Addresses,
		Transport: transport,
	}

	switch cfg.Auth {
	case AuthNone, "":
	case AuthBasic:
		if cfg.Username == "" {
			return nil, errors.New("username is required for basic auth")
		}
		osCfg.Username = cfg.Username
		osCfg.Password = cfg.Password
	case AuthAWS:
		if cfg.Region == "" {
			return nil, errors.New("region is required for aws auth")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		service := cfg.Service
		if service == "" {
			service = DefaultAWSService
		}
		signer, err := awsv2.NewSignerWithService(awsCfg, service)
		if err != nil {
			return nil, fmt.Errorf("create aws signer: %w", err)
		}
		osCfg.Signer = signer
	default:
		return nil, fmt.Errorf("unsupported auth type %q", cfg.Auth)
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{Client: osCfg})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Client{api: api}, nil
}

func newTransport(cfg Config) (*http.Transport, error) {
	tlsCfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !cfg.VerifyHostname, //nolint:gosec // operator opt-out
	}
	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca file %s: no certificates found", cfg.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = tlsCfg
	return t, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.api.Ping(ctx, nil)
	if err != nil {
		return wrapErr(engine.OpPing, "", err)
	}
	defer closeBody(resp)
	if resp.IsError() {
		return &engine.Error{Op: engine.OpPing, Status: resp.StatusCode, Err: errors.New(resp.Status())}
	}
	return nil
}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search engine: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// wrapErr attaches op context and the HTTP status carried by structured
// engine errors.
func wrapErr(op, index string, err error) error {
	e := &engine.Error{Op: op, Index: index, Err: err}
	var se *osgo.StructError
	if errors.As(err, &se) {
		e.Status = se.Status
	}
	return e
}

func closeBody(resp *osgo.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}
