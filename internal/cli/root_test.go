package cmd_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmd "github.com/paideia-dao/paideia-site/internal/cli"
	"github.com/paideia-dao/paideia-site/internal/config"
	"github.com/paideia-dao/paideia-site/pkg/hashutil"
)

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/asset/price/paideia", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"price": 0.016931}`)
	})
	mux.HandleFunc("/blogs/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"name": "Intro to DAOs", "img_url": "https://cdn.paideia.im/dao.png", "description": "d", "link": "intro", "date": "2022-03-04"}]`)
	})
	mux.HandleFunc("/faq/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"question": "What is Paideia?", "answer": "A **DAO** toolkit."}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("CONTENT_API_BASE", srv.URL)
	t.Setenv("PRICE_API_BASE", srv.URL)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd.ResetFlags()
	root := cmd.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func TestInitConfigNoFlags(t *testing.T) {
	cmd.ResetFlags()

	cfg, err := cmd.InitConfigWithError()
	require.NoError(t, err)

	defaultCfg, err := config.WithDefault().Build()
	require.NoError(t, err)
	assert.Equal(t, defaultCfg.ListenAddr(), cfg.ListenAddr())
	assert.Equal(t, defaultCfg.OutputDir(), cfg.OutputDir())
	assert.Equal(t, defaultCfg.AssetSymbol(), cfg.AssetSymbol())
	assert.Equal(t, defaultCfg.Policy(), cfg.Policy())
}

func TestInitConfigFlagsOverrideFile(t *testing.T) {
	cmd.ResetFlags()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listenAddr: \":9000\"\noutputDir: site\nassetSymbol: erg\n"), 0o644))

	cmd.SetConfigFileForTest(path)
	cfg, err := cmd.InitConfigWithError()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr())
	assert.Equal(t, "site", cfg.OutputDir())
	assert.Equal(t, "erg", cfg.AssetSymbol())

	cmd.SetListenForTest("127.0.0.1:9100")
	cmd.SetOutputDirForTest("public")
	cfg, err = cmd.InitConfigWithError()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.ListenAddr())
	assert.Equal(t, "public", cfg.OutputDir())
}

func TestInitConfigWithMissingFile(t *testing.T) {
	cmd.ResetFlags()
	cmd.SetConfigFileForTest(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := cmd.InitConfigWithError()
	assert.ErrorIs(t, err, config.ErrFileDoesNotExist)
}

func TestPriceCommand(t *testing.T) {
	fakeUpstream(t)

	out, err := run(t, "price")
	require.NoError(t, err)
	assert.Equal(t, "paideia\t$0.0169\tfresh\n", out)
}

func TestArticlesCommand(t *testing.T) {
	fakeUpstream(t)

	out, err := run(t, "articles")
	require.NoError(t, err)
	assert.Contains(t, out, "Intro to DAOs")
	assert.Contains(t, out, "/blog/intro")
	assert.Contains(t, out, "https://cdn.paideia.im/dao.png")
	assert.Contains(t, out, "Mar 04 2022")
}

func TestFAQCommand(t *testing.T) {
	fakeUpstream(t)

	out, err := run(t, "faq")
	require.NoError(t, err)
	assert.Contains(t, out, "Q: What is Paideia?")
	assert.Contains(t, out, "toolkit")
}

func TestFAQCommand_UpstreamDown(t *testing.T) {
	srv := fakeUpstream(t)
	srv.Close()

	_, err := run(t, "faq")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	fakeUpstream(t)
	dir := t.TempDir()

	out, err := run(t, "export", "--output-dir", dir)
	require.NoError(t, err)

	landing, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(landing), "$0.0169")

	education, err := os.ReadFile(filepath.Join(dir, "education", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(education), "What is Paideia?")
	assert.Contains(t, string(education), "Intro to DAOs")

	hash, err := hashutil.HashBytes(education, hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "/\t"))
	assert.Equal(t, "/education\t"+filepath.Join(dir, "education", "index.html")+"\tblake3:"+hash, lines[1])
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "paideia-site dev+none"))
}
