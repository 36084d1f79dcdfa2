package inspect

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bizmerge"
	"github.com/agentstation/bizmerge/internal/appcontext"
	"github.com/agentstation/bizmerge/pkg/constants"
)

func fixture(t *testing.T, format string) (string, *appcontext.Mock) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"website.csv": "root_domain;s_category;site_name;phone;main_city;main_region;main_country\n" +
			"foo.com;Cafe;Foo;1;Rome;Lazio;Italy\n" +
			"bar.com;Bakery;Bar;2;Milan;Lombardy;Italy\n",
		"social.csv":    "domain,categories,address,phone,name\nfoo.com,Cafe,,1,Foo\n",
		"directory.csv": "domain,category,address,phone,name,country_name,city\nbar.com,Bakery,,2,Bar,Italy,Milan\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	mock := &appcontext.Mock{
		OptionsFunc: func() []bizmerge.Option {
			return []bizmerge.Option{
				bizmerge.WithWebsitePath(filepath.Join(dir, "website.csv")),
				bizmerge.WithSocialPath(filepath.Join(dir, "social.csv")),
				bizmerge.WithDirectoryPath(filepath.Join(dir, "directory.csv")),
				bizmerge.WithOutput(filepath.Join(dir, "out", "company_data.xlsx")),
			}
		},
		OutputFormatFunc: func() string { return format },
	}
	return dir, mock
}

func execute(t *testing.T, mock *appcontext.Mock, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewCommand(mock)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestInspectJSON(t *testing.T) {
	dir, mock := fixture(t, "json")

	stdout, stderr, err := execute(t, mock, "--limit", "1")
	require.NoError(t, err)

	var got []map[string]*string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "foo.com", *got[0]["root_domain"])

	assert.Contains(t, stderr, constants.MarkerResolved)
	assert.NotContains(t, stderr, constants.MarkerSuccess)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestInspectTable(t *testing.T) {
	_, mock := fixture(t, "table")

	stdout, _, err := execute(t, mock)
	require.NoError(t, err)
	assert.Contains(t, stdout, "foo.com")
	assert.Contains(t, stdout, "bar.com")
}

func TestInspectStats(t *testing.T) {
	_, mock := fixture(t, "table")

	stdout, _, err := execute(t, mock, "--stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "website")
	assert.Contains(t, stdout, "directory")
	assert.Contains(t, stdout, "linked")
}

func TestInspectStatsYAML(t *testing.T) {
	_, mock := fixture(t, "yaml")

	stdout, _, err := execute(t, mock, "--stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "run_id:")
	assert.Contains(t, stdout, "sources:")
}

func TestInspectErrors(t *testing.T) {
	_, mock := fixture(t, "xml")
	_, _, err := execute(t, mock)
	assert.Error(t, err)

	_, mock = fixture(t, "json")
	_, _, err = execute(t, mock, "--limit", "-1")
	assert.Error(t, err)
}
