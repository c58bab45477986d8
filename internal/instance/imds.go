// Package instance reports which EC2 instance is serving the request
package instance

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"go.uber.org/zap"
)

// Unknown is shown when metadata cannot be read, e.g. outside EC2
const Unknown = "unknown"

const defaultLookupTimeout = 2 * time.Second

// Info is the instance placement shown on the /info page
type Info struct {
	InstanceID       string
	AvailabilityZone string
}

// Describer reads instance metadata
type Describer interface {
	Describe(ctx context.Context) Info
}

// IMDSDescriber reads metadata from the EC2 instance metadata service
type IMDSDescriber struct {
	client  *imds.Client
	logger  *zap.Logger
	timeout time.Duration
}

// NewIMDSDescriber creates a describer. endpoint overrides the metadata service
// address and is empty in production.
func NewIMDSDescriber(endpoint string, logger *zap.Logger) *IMDSDescriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := imds.Options{}
	if endpoint != "" {
		opts.Endpoint = endpoint
	}
	return &IMDSDescriber{
		client:  imds.New(opts),
		logger:  logger,
		timeout: defaultLookupTimeout,
	}
}

// Describe never fails; unreadable fields come back as Unknown
func (d *IMDSDescriber) Describe(ctx context.Context) Info {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return Info{
		InstanceID:       d.get(ctx, "instance-id"),
		AvailabilityZone: d.get(ctx, "placement/availability-zone"),
	}
}

func (d *IMDSDescriber) get(ctx context.Context, path string) string {
	value, err := d.read(ctx, path)
	if err != nil {
		d.logger.Debug("instance metadata unavailable", zap.String("path", path), zap.Error(err))
		return Unknown
	}
	return value
}

func (d *IMDSDescriber) read(ctx context.Context, path string) (string, error) {
	out, err := d.client.GetMetadata(ctx, &imds.GetMetadataInput{Path: path})
	if err != nil {
		return "", err
	}
	defer func() { _ = out.Content.Close() }()

	body, err := io.ReadAll(out.Content)
	if err != nil {
		return "", fmt.Errorf("failed to read metadata %s: %w", path, err)
	}
	value := strings.TrimSpace(string(body))
	if value == "" {
		return "", fmt.Errorf("empty metadata %s", path)
	}
	return value, nil
}

// Static returns the same Info every time
type Static Info

// Describe implements Describer
func (s Static) Describe(context.Context) Info {
	return Info(s)
}
