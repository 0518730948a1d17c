package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentvault/talentvault-backend/internal/candidate/domain"
	"github.com/talentvault/talentvault-backend/pkg/testutil"
)

func TestRun_PrintsRecord(t *testing.T) {
	dir := t.TempDir()
	resume := testutil.WriteFile(t, dir, "jane.txt", testutil.SampleResume)
	vocab := testutil.VocabularyFile(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--file", resume, "--skills", vocab, "--no-ner"}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())

	var record domain.ExtractedRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &record))
	require.NotNil(t, record.Email)
	assert.Equal(t, "jane.doe@example.com", *record.Email)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, record.Skills)
	assert.Nil(t, record.Name)
}

func TestRun_PositionalFileAndPretty(t *testing.T) {
	resume := testutil.WriteFile(t, t.TempDir(), "jane.txt", testutil.SampleResume)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--pretty", "--no-ner", "--skills", testutil.VocabularyFile(t), resume}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.True(t, strings.HasPrefix(stdout.String(), "{\n  \""), stdout.String())
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	exe := testutil.WriteFile(t, dir, "resume.exe", "MZ")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing file flag", []string{"--no-ner"}, exitFailure},
		{"unknown flag", []string{"--bogus"}, exitFailure},
		{"unsupported format", []string{"--no-ner", "--file", exe}, exitUnsupported},
		{"file does not exist", []string{"--no-ner", "--file", dir + "/missing.txt"}, exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, tt.want, code)
			assert.Empty(t, stdout.String())
		})
	}
}
