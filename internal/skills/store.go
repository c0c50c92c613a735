// Package skills persists plans a tutor agent has learned so later tasks
// can reuse them.
package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JamesCampbellJr/Project-Chimera/internal/plan"
)

type Skill struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Plan        plan.Plan `json:"plan"`
	LearnedAt   time.Time `json:"learned_at"`
}

// Store keeps one JSON file per skill under a directory. Writes are atomic
// (temp file + rename) so a crash never leaves a half-written skill.
type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func Slug(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(s, "_")
}

// Save writes the skill and returns the path it was stored at.
func (s *Store) Save(skill Skill) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(skill.Name) == "" {
		return "", fmt.Errorf("skill has no name")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create skills dir: %w", err)
	}
	if skill.LearnedAt.IsZero() {
		skill.LearnedAt = time.Now()
	}

	data, err := json.MarshalIndent(skill, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal skill: %w", err)
	}

	path := filepath.Join(s.dir, Slug(skill.Name)+".json")
	tmp, err := os.CreateTemp(s.dir, ".skill-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write skill: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store skill: %w", err)
	}
	return path, nil
}

func (s *Store) Load(name string) (Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, Slug(name)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, fmt.Errorf("read skill %q: %w", name, err)
	}
	var skill Skill
	if err := json.Unmarshal(data, &skill); err != nil {
		return Skill{}, fmt.Errorf("parse skill %q: %w", name, err)
	}
	return skill, nil
}

// List returns the slugs of every stored skill, sorted.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read skills dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
