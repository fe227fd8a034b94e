package gcp

import "testing"

func TestClientOptionsFromEnv(t *testing.T) {
	cases := []struct {
		name   string
		env    map[string]string
		scopes []string
		want   int
	}{
		{"nothing set", nil, nil, 0},
		{"scopes only", nil, []string{cloudPlatformScope}, 1},
		{"inline json", map[string]string{"GOOGLE_APPLICATION_CREDENTIALS_JSON": `{"type":"service_account"}`}, nil, 1},
		{"key file with quota", map[string]string{
			"GOOGLE_APPLICATION_CREDENTIALS": "/secrets/key.json",
			"GOOGLE_CLOUD_QUOTA_PROJECT":     "billing-project",
		}, []string{cloudPlatformScope}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_CLOUD_QUOTA_PROJECT"} {
				t.Setenv(k, tc.env[k])
			}
			if got := len(ClientOptions(tc.scopes...)); got != tc.want {
				t.Fatalf("options: want=%d got=%d", tc.want, got)
			}
		})
	}
}

func TestCredentialsPreferInlineJSON(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", ` {"a":1} `)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/key.json")
	if got := credentialsFromEnv(); got != `{"a":1}` {
		t.Fatalf("credentialsFromEnv: %q", got)
	}
}
