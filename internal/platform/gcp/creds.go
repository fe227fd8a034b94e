package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ClientOptions builds the options shared by the storage and Document AI
// clients. Credentials come from GOOGLE_APPLICATION_CREDENTIALS_JSON (inline)
// or GOOGLE_APPLICATION_CREDENTIALS (key file path); with neither set the
// client falls back to application default credentials.
// GOOGLE_CLOUD_QUOTA_PROJECT bills API quota to a project other than the
// credential's own.
func ClientOptions(scopes ...string) []option.ClientOption {
	var opts []option.ClientOption
	if creds := credentialsFromEnv(); creds != "" {
		if strings.HasPrefix(creds, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
	}
	if quota := strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_QUOTA_PROJECT")); quota != "" {
		opts = append(opts, option.WithQuotaProject(quota))
	}
	if len(scopes) > 0 {
		opts = append(opts, option.WithScopes(scopes...))
	}
	return opts
}

func credentialsFromEnv() string {
	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); creds != "" {
		return creds
	}
	return strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
}
