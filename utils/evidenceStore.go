package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const (
	StorageProviderGCS = "gcs"
)

// EvidenceStore persists evidence attachments and returns a content address.
// The address is derived from the bytes, so storing the same file twice yields
// the same reference. Storage failures abort the write path before any ledger
// interaction.
type EvidenceStore interface {
	Store(ctx context.Context, data []byte) (contentAddress string, err error)
}

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderGCS
	}
	return provider
}

func NewEvidenceStore() (EvidenceStore, error) {
	switch GetStorageProvider() {
	case StorageProviderGCS:
		return &gcsEvidenceStore{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", GetStorageProvider())
	}
}

// getGoogleClient initializes a Google Cloud Storage client.
// Prefers ADC (service account / GOOGLE_APPLICATION_CREDENTIALS); explicit JSON
// can be provided via GCS_CREDENTIALS_JSON for local development.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type gcsEvidenceStore struct{}

// ContentAddress returns the hex sha256 digest used as the evidence reference.
func ContentAddress(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *gcsEvidenceStore) Store(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("evidence is empty")
	}
	bucketName := os.Getenv("GCS_BUCKET")
	if bucketName == "" {
		return "", errors.New("GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	addr := ContentAddress(data)
	objectName := "evidence/" + addr

	obj := client.Bucket(bucketName).Object(objectName)
	if _, err := obj.Attrs(ctx); err == nil {
		// Already stored under the same content address.
		return addr, nil
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return addr, nil
}
