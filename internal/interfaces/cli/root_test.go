package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupiana/lexipipe/internal/config"
	"github.com/tupiana/lexipipe/internal/domain/annotation"
	"github.com/tupiana/lexipipe/internal/domain/job"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/client"
)

func TestNewRootCommandStructure(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "lexipipe", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	expected := []string{"job", "classify", "annotate", "import-lexicon", "migrate"}
	found := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		found[sub.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, found[name], "missing subcommand %q", name)
	}
}

func TestNewRootCommandGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"config", "log-level", "output", "verbose", "timeout", "server"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %q", name)
	}
}

// testCommand builds a command with a preseeded CLIContext pointing at the
// given server, bypassing persistentPreRun.
func testCommand(t *testing.T, server *httptest.Server, build func() *cobra.Command, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	cliCtx := &CLIContext{
		Config:       &config.Config{},
		Logger:       logging.NewNopLogger(),
		Client:       client.New(server.URL, 5*time.Second),
		OutputFormat: "json",
		Timeout:      5 * time.Second,
	}

	cmd := build()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	cmd.SetContext(context.WithValue(context.Background(), cliContextKey{}, cliCtx))
	return cmd, out
}

func TestJobStatusCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs/job-42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&job.BatchJob{ID: "job-42", Status: job.StatusProcessing})
	}))
	defer server.Close()

	cmd, out := testCommand(t, server, NewJobCmd, "status", "job-42")
	require.NoError(t, cmd.Execute())

	var got job.BatchJob
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "job-42", got.ID)
	assert.Equal(t, job.StatusProcessing, got.Status)
}

func TestJobEnqueueRejectsUnknownSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be called")
	}))
	defer server.Close()

	cmd, _ := testCommand(t, server, NewJobCmd, "enqueue", "bagual", "--source", "telepathy")
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telepathy")
}

func TestJobCancelCommand(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id":"job-7","cancellation":"requested"}`))
	}))
	defer server.Close()

	cmd, _ := testCommand(t, server, NewJobCmd, "cancel", "job-7")
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/api/v1/jobs/job-7/cancel", gotPath)
}

func TestAnnotateCommandTokenizes(t *testing.T) {
	var gotBody struct {
		Tokens []annotation.Token `json:"tokens"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens":[],"unresolved":0}`))
	}))
	defer server.Close()

	cmd, _ := testCommand(t, server, NewAnnotateCmd, "o guri tomou chimarrão")
	require.NoError(t, cmd.Execute())

	require.Len(t, gotBody.Tokens, 4)
	assert.Equal(t, "guri", gotBody.Tokens[1].SurfaceForm)
	assert.Equal(t, "o", gotBody.Tokens[1].LeftContext)
	assert.Equal(t, "tomou chimarrão", gotBody.Tokens[1].RightContext)
	assert.Equal(t, 1, gotBody.Tokens[1].SentencePosition)
}

func TestAnnotateCommandEmptyInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be called")
	}))
	defer server.Close()

	cmd, _ := testCommand(t, server, NewAnnotateCmd)
	cmd.SetIn(bytes.NewBufferString("   \n"))
	require.Error(t, cmd.Execute())
}

func TestClassifyCommandSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"SEM_001","message":"word not classified"}`))
	}))
	defer server.Close()

	cmd, _ := testCommand(t, server, NewClassifyCmd, "xirua", "--lookup")
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word not classified")
}

func TestTokenizeContextWindow(t *testing.T) {
	tokens := tokenize("a b c d e f")
	require.Len(t, tokens, 6)
	assert.Empty(t, tokens[0].LeftContext)
	assert.Equal(t, "b c d", tokens[0].RightContext)
	assert.Equal(t, "b c d", tokens[4].LeftContext)
	assert.Equal(t, "f", tokens[4].RightContext)
	assert.Empty(t, tokens[5].RightContext)
}
