package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper functions construct fake secret strings at runtime to avoid
// gitleaks false positives. These use obvious test/example patterns.
func fakeVendorKey() string     { return "sk-" + "TESTONLYxxxxxxxxxxxxxxxxxxxx1234" }
func fakeGenericAPIKey() string { return "TESTONLY" + "apikey12345678" }
func fakeBearerToken() string   { return "TESTONLYbearer" + "token1234567890" }
func fakePassword() string      { return "testonly" + "password123" }

func TestContainsSensitiveData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{
			name:     "vendor-prefixed key",
			input:    "using key " + fakeVendorKey(),
			expected: true,
		},
		{
			name:     "generic api key assignment",
			input:    "api_key=" + fakeGenericAPIKey(),
			expected: true,
		},
		{
			name:     "bearer token",
			input:    "Bearer " + fakeBearerToken(),
			expected: true,
		},
		{
			name:     "password assignment",
			input:    "password: " + fakePassword(),
			expected: true,
		},
		{
			name:     "plain pipeline message",
			input:    "stage 5 succeeded with score 0.93",
			expected: false,
		},
		{
			name:     "provider data excerpt",
			input:    "strategy b2b-saas-q3 has 3 pillars",
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ContainsSensitiveData(tc.input))
		})
	}
}

func TestFilterSensitiveValue_RedactsMatches(t *testing.T) {
	t.Parallel()

	input := "request context includes api_key=" + fakeGenericAPIKey() + " from config"
	filtered := FilterSensitiveValue(input)

	assert.Contains(t, filtered, RedactedValue)
	assert.NotContains(t, filtered, fakeGenericAPIKey())
}

func TestFilterSensitiveValue_LeavesCleanStringsAlone(t *testing.T) {
	t.Parallel()

	input := "calendar spans 2026-09-01 to 2026-09-30 with 30 items"
	assert.Equal(t, input, FilterSensitiveValue(input))
}

func TestIsSensitiveFieldName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field    string
		expected bool
	}{
		{"api_key", true},
		{"API_KEY", true},
		{"generation_api_key", true},
		{"password", true},
		{"authorization", true},
		{"strategy_id", false},
		{"run_id", false},
		{"stage", false},
	}

	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, IsSensitiveFieldName(tc.field))
		})
	}
}

func TestRedactIfSensitive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RedactedValue, RedactIfSensitive("api_key", "any-value"))
	assert.Equal(t, "run-123", RedactIfSensitive("run_id", "run-123"))
}

func TestSafeValue_MatchesRedactIfSensitive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RedactedValue, SafeValue("secret", "hidden"))
	assert.Equal(t, "linkedin", SafeValue("platform", "linkedin"))
}

func TestFilteringWriter_RedactsOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fw := NewFilteringWriter(&buf)

	payload := "generation request with api_key=" + fakeGenericAPIKey() + "\n"
	n, err := fw.Write([]byte(payload))

	require.NoError(t, err)
	assert.Equal(t, len(payload), n, "writer must report the original length")
	assert.Contains(t, buf.String(), RedactedValue)
	assert.NotContains(t, buf.String(), fakeGenericAPIKey())
}

func TestSensitiveDataHook_FlagsEntries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewSensitiveDataHook())

	logger.Info().Msg("loading key " + fakeVendorKey())

	assert.Contains(t, buf.String(), "contains_filtered_data")
}

func TestSensitiveDataHook_IgnoresCleanEntries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewSensitiveDataHook())

	logger.Info().Msg("stage 8 fan-out complete")

	assert.NotContains(t, buf.String(), "contains_filtered_data")
}
