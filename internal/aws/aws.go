package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// NewKMSClient loads the default AWS configuration and returns a client used
// to decrypt the Flodesk credential at start-up.
func NewKMSClient(ctx context.Context) (*KMSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &KMSClient{Client: kms.NewFromConfig(cfg)}, nil
}
