package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// ErrUnknownPrompt is returned for a prompt name with no built-in default.
var ErrUnknownPrompt = errors.New("unknown prompt")

// promptDef is a built-in prompt and the number of %s verbs a user
// override must keep.
type promptDef struct {
	content      string
	placeholders int
}

var builtinPrompts = map[string]promptDef{
	driven.PromptAnswerSystem: {content: domain.AnswerSystemPrompt},
	driven.PromptAnswerUser:   {content: domain.AnswerUserPromptTemplate, placeholders: 2},
}

type cachedPrompt struct {
	content string
	modTime time.Time
}

// PromptStore serves answer prompts from <dir>/<name>.txt, seeding the
// directory with the built-in prompts on first use. Edited files are picked
// up on the next Load without a restart. An override that is empty or drops
// a placeholder is ignored in favour of the built-in prompt.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

// NewPromptStore creates a prompt store rooted at dir. An empty dir means
// ~/.notesrag/prompts. No files are touched until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".notesrag", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the prompt called name.
func (s *PromptStore) Load(name string) (string, error) {
	def, ok := builtinPrompts[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		return def.content, nil
	}

	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		return def.content, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) {
		return c.content, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return def.content, nil
	}
	content := strings.TrimSpace(string(data))
	if !usable(content, def) {
		logger.Warn("Prompt %s is empty or missing placeholders, using the built-in prompt", path)
		content = def.content
	}
	s.cache[name] = cachedPrompt{content: content, modTime: info.ModTime()}
	return content, nil
}

// Reload drops cached prompts.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]cachedPrompt)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func usable(content string, def promptDef) bool {
	if content == "" {
		return false
	}
	return strings.Count(content, "%s") == def.placeholders
}

// seed writes the built-in prompts and a README without overwriting edits.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Debug("Prompt store disabled: %v", s.seedErr)
		return
	}
	for name, def := range builtinPrompts {
		if err := writeIfMissing(s.path(name), def.content); err != nil {
			s.seedErr = fmt.Errorf("write default prompt %q: %w", name, err)
			return
		}
	}
	if err := writeIfMissing(filepath.Join(s.dir, "README.md"), promptReadme); err != nil {
		s.seedErr = err
	}
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return os.WriteFile(path, []byte(content+"\n"), 0o600)
}

const promptReadme = `# notesrag prompts

Edit these files to change how answers are generated. Changes apply to the
next question.

- answer_system.txt: system message for the study assistant
- answer_user.txt: question template with two %s placeholders, the notes
  context first and then the question

Delete a file to restore the built-in prompt.`
