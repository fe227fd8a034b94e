package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/classroom-backend/internal/platform/gcp"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		src  error
		want StorageProviderBootstrapErrorCode
	}{
		{"invalid mode", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode}, StorageProviderBootstrapErrorInvalidMode},
		{"missing bucket", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingBucket}, StorageProviderBootstrapErrorMissingBucket},
		{"missing emulator host", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost}, StorageProviderBootstrapErrorMissingEmulatorHost},
		{"invalid emulator host", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost}, StorageProviderBootstrapErrorInvalidEmulatorHost},
		{"connect", errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS}, tc.src)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if !errors.Is(err, tc.src) {
				t.Fatalf("cause not preserved")
			}
		})
	}
}

func TestResolveBlobStoreInvalidMode(t *testing.T) {
	_, err := resolveBlobStore(context.Background(), logger.NewNop(), Config{ObjectStorageMode: "invalid"})
	if err == nil {
		t.Fatalf("resolveBlobStore: expected error, got nil")
	}
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidMode, code)
	}
}

func TestResolveBlobStorePassesEmulatorConfig(t *testing.T) {
	orig := newBlobStore
	t.Cleanup(func() { newBlobStore = orig })

	var captured gcp.ObjectStorageConfig
	want, err := gcp.NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlobStore: %v", err)
	}
	newBlobStore = func(_ context.Context, _ *logger.Logger, cfg gcp.ObjectStorageConfig) (gcp.BlobStore, error) {
		captured = cfg
		return want, nil
	}

	got, err := resolveBlobStore(context.Background(), logger.NewNop(), Config{
		ObjectStorageMode:         string(gcp.ObjectStorageModeGCSEmulator),
		StorageEmulatorHost:       "http://fake-gcs:4443",
		GCSBucket:                 "classroom",
		StorageModeCompatFallback: true,
	})
	if err != nil {
		t.Fatalf("resolveBlobStore: %v", err)
	}
	if got != want {
		t.Fatalf("expected stub store instance")
	}
	if captured.Mode != gcp.ObjectStorageModeGCSEmulator || captured.EmulatorHost != "http://fake-gcs:4443" || captured.Bucket != "classroom" {
		t.Fatalf("unexpected storage config: %+v", captured)
	}
	if captured.ModeSource() != "compatibility_fallback" {
		t.Fatalf("mode source: got=%q", captured.ModeSource())
	}
}

func TestResolveBlobStoreClassifiesFactoryError(t *testing.T) {
	// gcs mode without a bucket fails validation inside the real factory.
	_, err := resolveBlobStore(context.Background(), logger.NewNop(), Config{
		ObjectStorageMode: string(gcp.ObjectStorageModeGCS),
	})
	if err == nil {
		t.Fatalf("resolveBlobStore: expected error, got nil")
	}
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorMissingBucket {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorMissingBucket, code)
	}
}

func TestResolveBlobStoreLocal(t *testing.T) {
	dir := t.TempDir()
	store, err := resolveBlobStore(context.Background(), logger.NewNop(), Config{
		ObjectStorageMode: string(gcp.ObjectStorageModeLocal),
		LocalStorageDir:   dir,
	})
	if err != nil {
		t.Fatalf("resolveBlobStore: %v", err)
	}
	defer store.Close()
	if store.Mode() != gcp.ObjectStorageModeLocal {
		t.Fatalf("mode: got=%q", store.Mode())
	}
}
