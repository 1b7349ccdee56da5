package aws

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// KMSDecrypter is the subset of the KMS API needed to unwrap secrets.
type KMSDecrypter interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

type KMSClient struct {
	Client KMSDecrypter
}

// Decrypt unwraps a base64 encoded KMS ciphertext. keyId is optional for
// symmetric keys.
func (c *KMSClient) Decrypt(ctx context.Context, keyId, encodedCiphertext string) (string, error) {
	if encodedCiphertext == "" {
		return "", errors.New("ciphertext is empty")
	}

	blob, err := base64.StdEncoding.DecodeString(encodedCiphertext)
	if err != nil {
		return "", fmt.Errorf("ciphertext is not valid base64: %w", err)
	}

	input := &kms.DecryptInput{CiphertextBlob: blob}
	if keyId != "" {
		input.KeyId = aws.String(keyId)
	}

	out, err := c.Client.Decrypt(ctx, input)
	if err != nil {
		return "", fmt.Errorf("kms decrypt failed: %w", err)
	}

	return strings.TrimSpace(string(out.Plaintext)), nil
}
