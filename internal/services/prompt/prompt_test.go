package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marker = "You are an AI consultant"

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.warnings = append(l.warnings, msg)
}

func writePrompt(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system-prompt.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveSlicesFromMarkerAndStripsMarkdown(t *testing.T) {
	path := writePrompt(t, "# Internal notes\n\nDraft, do not ship.\n\n"+
		"You are an AI consultant for **Archpoint Labs**.\n\n## Services\n\nStrategy and **automation**.")
	logger := &recordingLogger{}

	got := Resolve(path, marker, logger)

	assert.Equal(t, "You are an AI consultant for Archpoint Labs.\n\nServices\n\nStrategy and automation.", got)
	assert.Empty(t, logger.warnings)
}

func TestResolveFallsBackWhenFileMissing(t *testing.T) {
	logger := &recordingLogger{}

	got := Resolve(filepath.Join(t.TempDir(), "missing.md"), marker, logger)

	assert.Equal(t, DefaultPersona, got)
	assert.Len(t, logger.warnings, 1)
}

func TestResolveFallsBackWhenDocumentIsBlank(t *testing.T) {
	logger := &recordingLogger{}

	got := Resolve(writePrompt(t, "  \n\n---\n"), marker, logger)

	assert.Equal(t, DefaultPersona, got)
	assert.NotEmpty(t, got)
	assert.Len(t, logger.warnings, 1)
}

func TestRenderWithoutMarkerUsesWholeDocument(t *testing.T) {
	got, err := Render([]byte("### Role\nHelp *every* visitor."), marker)
	require.NoError(t, err)
	assert.Equal(t, "Role\n\nHelp *every* visitor.", got)
}

func TestRenderMarkerMustStartTheLine(t *testing.T) {
	src := "Intro: You are an AI consultant in disguise.\nYou are an AI consultant for real."
	got, err := Render([]byte(src), marker)
	require.NoError(t, err)
	assert.Equal(t, "You are an AI consultant for real.", got)
}

func TestRenderListsAndCode(t *testing.T) {
	src := "You are an AI consultant.\n\n" +
		"- **Strategy** sessions\n" +
		"- Automation\n\n" +
		"1. Listen\n" +
		"2. Propose\n\n" +
		"Use `markdown` sparingly. See [our site](https://archpointlabs.com).\n\n" +
		"```\ncode stays\n```"

	got, err := Render([]byte(src), marker)
	require.NoError(t, err)
	assert.Equal(t, "You are an AI consultant.\n\n"+
		"- Strategy sessions\n- Automation\n\n"+
		"1. Listen\n2. Propose\n\n"+
		"Use `markdown` sparingly. See our site (https://archpointlabs.com).\n\n"+
		"code stays", got)
}

func TestRenderKeepsSoftLineBreaks(t *testing.T) {
	got, err := Render([]byte("You are an AI consultant.\nBe brief.\r\nBe kind."), marker)
	require.NoError(t, err)
	assert.Equal(t, "You are an AI consultant.\nBe brief.\nBe kind.", got)
}

func TestResolveShippedPersona(t *testing.T) {
	logger := &recordingLogger{}

	got := Resolve(filepath.Join("..", "..", "..", "prompts", "system-prompt.md"), marker, logger)

	assert.Empty(t, logger.warnings)
	require.GreaterOrEqual(t, len(got), len(marker))
	assert.Equal(t, marker, got[:len(marker)])
	assert.NotContains(t, got, "Internal notes")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "##")
	assert.Contains(t, got, "named Milo")
	assert.Contains(t, got, "- AI strategy: roadmaps")
}
