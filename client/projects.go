// ABOUTME: File-backed project store for canvas projects
// ABOUTME: Stands in for the browser's localStorage persistence

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrProjectNotFound is returned when a project ID has no entry.
var ErrProjectNotFound = errors.New("项目不存在")

// CanvasItem is one element placed on a project canvas.
type CanvasItem struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"` // image or text
	Src    string  `json:"src,omitempty"`
	Prompt string  `json:"prompt,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Scene is one storyboard entry derived from a canvas.
type Scene struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description,omitempty"`
	Duration          float64 `json:"duration"`
	StartTime         float64 `json:"startTime"`
	Status            string  `json:"status"` // draft, generating, ready, error
	CanvasItemID      string  `json:"canvasItemId,omitempty"`
	ImageSource       string  `json:"imageSource,omitempty"`
	GeneratedImageSrc string  `json:"generatedImageSrc,omitempty"`
}

// Project is one canvas workspace with its storyboard.
type Project struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Items     []CanvasItem `json:"items"`
	Scenes    []Scene      `json:"scenes"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// ProjectStore persists projects to a single JSON file.
type ProjectStore struct {
	mu       sync.Mutex
	path     string
	projects map[string]*Project
}

// OpenProjectStore loads (or initializes) the store at path.
func OpenProjectStore(path string) (*ProjectStore, error) {
	s := &ProjectStore{
		path:     path,
		projects: make(map[string]*Project),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read project store: %w", err)
	}

	var stored []*Project
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse project store: %w", err)
	}
	for _, p := range stored {
		s.projects[p.ID] = p
	}
	return s, nil
}

// Create adds a new empty project. An empty name defaults to 未命名项目.
func (s *ProjectStore) Create(name string) (*Project, error) {
	if name == "" {
		name = "未命名项目"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		Items:     []CanvasItem{},
		Scenes:    []Scene{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.projects[p.ID] = p
	if err := s.saveLocked(); err != nil {
		delete(s.projects, p.ID)
		return nil, err
	}
	return clone(p), nil
}

// Get returns a project by ID.
func (s *ProjectStore) Get(id string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return clone(p), nil
}

// List returns all projects, most recently updated first.
func (s *ProjectStore) List() []*Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Update replaces a project's contents and bumps UpdatedAt.
func (s *ProjectStore) Update(p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.projects[p.ID]
	if !ok {
		return ErrProjectNotFound
	}

	next := clone(p)
	next.CreatedAt = prev.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.projects[p.ID] = next

	if err := s.saveLocked(); err != nil {
		s.projects[p.ID] = prev
		return err
	}
	return nil
}

// Delete removes a project. Deleting an unknown ID is a no-op.
func (s *ProjectStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.projects[id]
	if !ok {
		return nil
	}
	delete(s.projects, id)

	if err := s.saveLocked(); err != nil {
		s.projects[id] = prev
		return err
	}
	return nil
}

// saveLocked writes the store to disk via a temp file and rename so a
// crash mid-write never truncates the existing file.
func (s *ProjectStore) saveLocked() error {
	stored := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		stored = append(stored, p)
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].CreatedAt.Before(stored[j].CreatedAt)
	})

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".projects-*.json")
	if err != nil {
		return fmt.Errorf("write project store: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write project store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write project store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write project store: %w", err)
	}
	return nil
}

func clone(p *Project) *Project {
	cp := *p
	cp.Items = append([]CanvasItem(nil), p.Items...)
	cp.Scenes = append([]Scene(nil), p.Scenes...)
	return &cp
}
