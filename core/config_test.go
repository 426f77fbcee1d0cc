package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_defaults(t *testing.T) {
	t.Setenv("ENV", "test")

	conf, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, ProfileExpress, conf.API.Profile)
	assert.Equal(t, "http://localhost:3000/api", conf.API.BaseURL)
	assert.Equal(t, "http://localhost:3000/api/public", conf.API.PublicBaseURL)
	assert.Equal(t, "http://localhost:5000/api", conf.API.DirectBaseURL)
	assert.Equal(t, 4*time.Second, conf.API.Timeout)
	assert.Equal(t, 10, conf.API.PageSize)
	assert.Equal(t, 5, conf.DashboardFanout)
}

func TestNewConfig_env(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("TEST_APIBASEURL", "http://api.school.test/v1/")
	t.Setenv("TEST_APITIMEOUT", "3s")
	t.Setenv("TEST_APIPAGESIZE", "25")

	conf, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://api.school.test/v1", conf.API.BaseURL)
	assert.Equal(t, "http://api.school.test/v1/public", conf.API.PublicBaseURL)
	assert.Equal(t, 3*time.Second, conf.API.Timeout)
	assert.Equal(t, 25, conf.API.PageSize)
}

func TestNewConfig_dotenv(t *testing.T) {
	t.Setenv("ENV", "qa")
	dir := t.TempDir()
	content := "QA_APIPROFILE=fastapi\nQA_APIPUBLICBASEURL=http://public.school.test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.qa"), []byte(content), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("QA_APIPROFILE")
		_ = os.Unsetenv("QA_APIPUBLICBASEURL")
	})

	conf, err := NewConfig(dir)
	require.NoError(t, err)
	assert.False(t, conf.TestMode)
	assert.Equal(t, ProfileFastAPI, conf.API.Profile)
	assert.Equal(t, "http://public.school.test", conf.API.PublicBaseURL)
}

func TestNewConfig_invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown profile", key: "TEST_APIPROFILE", val: "django"},
		{name: "bad base url", key: "TEST_APIBASEURL", val: "not a url"},
		{name: "zero page size", key: "TEST_APIPAGESIZE", val: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", "test")
			t.Setenv(tt.key, tt.val)
			if _, err := NewConfig(""); err == nil {
				t.Errorf("NewConfig() with %s=%q: expected an error", tt.key, tt.val)
			}
		})
	}
}
