package scaffold_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-view/pkg/scaffold"
	"github.com/goliatone/go-view/pkg/testsupport"
	"github.com/goliatone/go-view/pkg/view"
)

var userListGolden = filepath.Join("testdata", "user_list.golden")

func newGenerator(t *testing.T, v *view.View) (*scaffold.Generator, string) {
	t.Helper()
	dir := t.TempDir()
	return scaffold.New(v).
		Destination(dir).
		Extension("html").
		Template("view").
		SetNameProperties(true), dir
}

func TestGeneratorMakeWithBuiltInStub(t *testing.T) {
	v := view.MustNew()
	gen, dir := newGenerator(t, v)

	file, err := gen.FileName("admin/userList").Make(testsupport.Context())
	require.NoError(t, err)

	require.Equal(t, "userList.html", file.Name)
	require.Equal(t, filepath.Join(dir, "admin", "userList.html"), file.Path)

	if testsupport.WriteMaybeGolden(t, userListGolden, []byte(file.Content)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, userListGolden)
	if diff := testsupport.CompareGolden(want, file.Content); diff != "" {
		t.Fatalf("stub output mismatch (-want +got):\n%s", diff)
	}

	written, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	require.Equal(t, want, string(written))
	require.True(t, v.HasTemplate("artisan::view"))
}

func TestGeneratorUsesRegisteredStub(t *testing.T) {
	v := view.MustNew()
	require.NoError(t, v.CreateTemplate("artisan::view", "custom {{ nameSnake }} {{ extra }}"))

	gen, _ := newGenerator(t, v)
	file, err := gen.FileName("OrderItems").
		Properties(map[string]any{"extra": "ok"}).
		Make(testsupport.Context())
	require.NoError(t, err)
	require.Equal(t, "custom order_items ok", file.Content)
}

func TestGeneratorWithoutNameProperties(t *testing.T) {
	v := view.MustNew()
	require.NoError(t, v.CreateTemplate("artisan::plain", "[{{ namePascal }}]"))

	gen, _ := newGenerator(t, v)
	file, err := gen.FileName("welcome").
		Template("artisan::plain").
		SetNameProperties(false).
		Make(testsupport.Context())
	require.NoError(t, err)
	require.Equal(t, "[]", file.Content)
}

func TestGeneratorRefusesToOverwrite(t *testing.T) {
	v := view.MustNew()
	gen, _ := newGenerator(t, v)
	gen.FileName("welcome")

	_, err := gen.Make(testsupport.Context())
	require.NoError(t, err)

	_, err = gen.Make(testsupport.Context())
	require.Error(t, err)
	require.ErrorIs(t, err, fs.ErrExist)

	_, err = gen.Force(true).Make(testsupport.Context())
	require.NoError(t, err)
}

func TestGeneratorUnknownTemplate(t *testing.T) {
	v := view.MustNew()
	gen, dir := newGenerator(t, v)

	_, err := gen.FileName("welcome").Template("missing").Make(testsupport.Context())
	require.Error(t, err)
	require.True(t, view.IsNotFound(err))

	_, statErr := os.Stat(filepath.Join(dir, "welcome.html"))
	require.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestGeneratorValidation(t *testing.T) {
	v := view.MustNew()
	gen, _ := newGenerator(t, v)

	_, err := gen.Make(testsupport.Context())
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gen.FileName("welcome").Make(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGeneratorPath(t *testing.T) {
	gen := scaffold.New(view.MustNew()).
		Destination("resources/views").
		Extension(".html").
		FileName("mail/welcome.html")

	require.Equal(t, filepath.Join("resources", "views", "mail", "welcome.html"), gen.Path())
}
