package transfer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/studylit/internal/storage"
	"github.com/julianstephens/studylit/internal/testutil"
	"github.com/julianstephens/studylit/internal/timetable"
)

type memClipboard struct {
	text string
	err  error
}

func (m *memClipboard) ReadAll() (string, error) { return m.text, m.err }

func (m *memClipboard) WriteAll(text string) error {
	if m.err != nil {
		return m.err
	}
	m.text = text
	return nil
}

func newService(t *testing.T) *timetable.Service {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "studylit.json"))
	require.NoError(t, store.Init())
	return timetable.NewService(store, testutil.FixedClock(), testutil.NewStubIDGenerator(), nil)
}

func TestClipboardRoundTrip(t *testing.T) {
	svc := newService(t)
	cb := &memClipboard{}
	src := Source{Clipboard: cb}

	require.NoError(t, Export(svc, src, "2025-10-20"))
	assert.Contains(t, cb.text, `"startTime": "06:30"`)

	require.NoError(t, svc.SetDayTheme("2025-10-20", "changed"))
	d, err := Import(svc, src, "2025-10-20")
	require.NoError(t, err)
	assert.Len(t, d.Blocks, 4)
	assert.True(t, d.IsCustomized)
}

func TestFileRoundTrip(t *testing.T) {
	svc := newService(t)
	path := filepath.Join(t.TempDir(), "monday.json")
	src := Source{Path: path}

	require.NoError(t, Export(svc, src, "2025-10-20"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = Import(svc, src, "2025-10-21")
	assert.Error(t, err, "payload is dated for monday")
}

func TestImportErrors(t *testing.T) {
	svc := newService(t)

	_, err := Import(svc, Source{Clipboard: &memClipboard{text: "  "}}, "2025-10-20")
	assert.EqualError(t, err, "nothing to import")

	_, err = Import(svc, Source{Path: "-", Clipboard: &memClipboard{err: errors.New("no display")}}, "2025-10-20")
	assert.ErrorContains(t, err, "no display")

	err = Export(svc, Source{Clipboard: &memClipboard{err: errors.New("no display")}}, "2025-10-20")
	assert.ErrorContains(t, err, "clipboard")
}
