package logger

import (
    "bytes"
    "encoding/json"
    "os"
    "path/filepath"
    "testing"

    "github.com/axiomhq/axiom-go/axiom"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
    t.Helper()
    lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
    var ev map[string]any
    require.NoError(t, json.Unmarshal(lines[len(lines)-1], &ev))
    return ev
}

func TestInitWritesJSONToConsole(t *testing.T) {
    var buf bytes.Buffer
    require.NoError(t, Init(Options{Level: "debug", Console: &buf}))
    defer Close()

    l := For("merge")
    l.Info().Int("pages", 3).Msg("merged")

    ev := lastLine(t, &buf)
    assert.Equal(t, "doctools", ev["service"])
    assert.Equal(t, "merge", ev["tool"])
    assert.Equal(t, float64(3), ev["pages"])
    assert.Equal(t, "merged", ev["message"])
}

func TestInitLevel(t *testing.T) {
    var buf bytes.Buffer
    require.NoError(t, Init(Options{Level: "warn", Console: &buf}))
    log.Info().Msg("hidden")
    assert.Zero(t, buf.Len())
    log.Warn().Msg("shown")
    assert.Equal(t, "shown", lastLine(t, &buf)["message"])

    buf.Reset()
    require.NoError(t, Init(Options{Level: "bogus", Console: &buf}))
    assert.Equal(t, zerolog.InfoLevel, Get().GetLevel())
}

func TestInitCreatesLogDir(t *testing.T) {
    var buf bytes.Buffer
    file := filepath.Join(t.TempDir(), "logs", "doctools.log")
    require.NoError(t, Init(Options{Console: &buf, File: file, MaxSizeMB: 1}))
    log.Info().Msg("to file")

    data, err := os.ReadFile(file)
    require.NoError(t, err)
    assert.Contains(t, string(data), "to file")
}

func TestAxiomWriterFiltersAndTags(t *testing.T) {
    var got []axiom.Event
    w := &levelFilter{min: zerolog.InfoLevel, w: &axiomWriter{ship: func(ev axiom.Event) { got = append(got, ev) }, service: "doctools"}}
    l := zerolog.New(zerolog.MultiLevelWriter(w))

    l.Debug().Msg("skip")
    l.Info().Str("tool", "split").Msg("keep")

    require.Len(t, got, 1)
    assert.Equal(t, "keep", got[0]["message"])
    assert.Equal(t, "doctools", got[0]["service"])
    assert.Contains(t, got[0], "_time")
}
