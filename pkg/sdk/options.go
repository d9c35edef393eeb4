package searchgate

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	auth     string // "none", "basic" or "aws"
	username string
	password string
	region   string
	service  string

	insecureSkipVerify bool
	caFile             string

	indexPrefix string
	batchSize   int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEndpoint sets the OpenSearch cluster address.
func WithEndpoint(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
	})
}

// WithBasicAuth authenticates with HTTP basic credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.auth = "basic"
		c.username = username
		c.password = password
	})
}

// WithAWS signs requests with SigV4 using the default AWS credential chain.
// service is "es" for managed domains and "aoss" for serverless collections.
func WithAWS(region, service string) Option {
	return optionFunc(func(c *clientConfig) {
		c.auth = "aws"
		c.region = region
		c.service = service
	})
}

// WithInsecureSkipVerify disables server certificate verification.
// Use for local clusters with self-signed certificates.
func WithInsecureSkipVerify() Option {
	return optionFunc(func(c *clientConfig) {
		c.insecureSkipVerify = true
	})
}

// WithCAFile trusts the PEM certificates in path in addition to the system pool.
func WithCAFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.caFile = path
	})
}

// WithIndexPrefix sets the index name prefix. Default: "backstage".
func WithIndexPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexPrefix = prefix
	})
}

// WithBatchSize sets the number of documents per bulk request.
// Default: 100.
func WithBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = size
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
