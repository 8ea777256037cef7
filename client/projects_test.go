// ABOUTME: Tests for the file-backed project store
// ABOUTME: Covers CRUD, ordering, and persistence across reopen

package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjectStore(t *testing.T) (*ProjectStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.json")
	s, err := OpenProjectStore(path)
	require.NoError(t, err)
	return s, path
}

func TestProjectStore_CreateAndGet(t *testing.T) {
	s, _ := newTestProjectStore(t)

	p, err := s.Create("我的剧本")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "我的剧本", p.Name)
	assert.NotNil(t, p.Items)
	assert.NotNil(t, p.Scenes)

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestProjectStore_DefaultName(t *testing.T) {
	s, _ := newTestProjectStore(t)

	p, err := s.Create("")
	require.NoError(t, err)
	assert.Equal(t, "未命名项目", p.Name)
}

func TestProjectStore_GetMissing(t *testing.T) {
	s, _ := newTestProjectStore(t)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectStore_Update(t *testing.T) {
	s, _ := newTestProjectStore(t)

	p, err := s.Create("画布")
	require.NoError(t, err)

	p.Items = append(p.Items, CanvasItem{ID: "i1", Type: "image", Src: "data:image/png;base64,x", X: 10, Y: 20})
	p.Scenes = append(p.Scenes, Scene{ID: "s1", Title: "开场", Duration: 5, Status: "draft"})
	require.NoError(t, s.Update(p))

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "image", got.Items[0].Type)
	require.Len(t, got.Scenes, 1)
	assert.Equal(t, "开场", got.Scenes[0].Title)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestProjectStore_UpdateMissing(t *testing.T) {
	s, _ := newTestProjectStore(t)

	err := s.Update(&Project{ID: "missing"})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectStore_ListOrder(t *testing.T) {
	s, _ := newTestProjectStore(t)

	a, _ := s.Create("旧项目")
	b, _ := s.Create("新项目")

	// Touch the older project so it sorts first.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Update(a))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID, "most recently updated first")
	assert.Equal(t, b.ID, list[1].ID)
}

func TestProjectStore_Delete(t *testing.T) {
	s, _ := newTestProjectStore(t)

	p, _ := s.Create("删除我")
	require.NoError(t, s.Delete(p.ID))

	_, err := s.Get(p.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, s.Delete(p.ID))
}

func TestProjectStore_PersistsAcrossReopen(t *testing.T) {
	s, path := newTestProjectStore(t)

	p, _ := s.Create("持久化项目")
	p.Items = append(p.Items, CanvasItem{ID: "i1", Type: "text", Prompt: "提示"})
	require.NoError(t, s.Update(p))

	reopened, err := OpenProjectStore(path)
	require.NoError(t, err)

	got, err := reopened.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "持久化项目", got.Name)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "提示", got.Items[0].Prompt)
}

func TestProjectStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenProjectStore(path)
	assert.Error(t, err)
}

func TestProjectStore_ReturnsCopies(t *testing.T) {
	s, _ := newTestProjectStore(t)

	p, _ := s.Create("隔离")
	p.Name = "mutated"

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "隔离", got.Name, "callers must not mutate stored state")
}
