package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// settingsSchema is the fixed shape of the user settings override file.
// Sensitive values (token, base URL) are deliberately absent: they can only
// come from the environment and are never written back to disk.
const settingsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"publish_now":         {"type": "boolean"},
		"lookahead_days":      {"type": "integer", "minimum": 1, "maximum": 365},
		"include_quiz_question": {"type": "boolean"},
		"quiz_prompt":         {"type": "string", "maxLength": 200},
		"default_course_id":   {"type": "string"},
		"shutdown_after_post": {"type": "boolean"}
	}
}`

// ErrInvalidSettings indicates the override payload did not match the
// settings schema.
var ErrInvalidSettings = errors.New("config: invalid user settings")

// SettingsStore manages the user settings override file. Overrides take
// precedence over packaged defaults and environment values for the
// non-sensitive keys they name.
type SettingsStore struct {
	path   string
	schema *jsonschema.Schema

	mu        sync.Mutex
	overrides map[string]any
}

// NewSettingsStore loads the override file at path, if present. A missing
// file is not an error; a malformed or schema-violating file is.
func NewSettingsStore(path string) (*SettingsStore, error) {
	schema, err := jsonschema.CompileString("user_settings.json", settingsSchema)
	if err != nil {
		return nil, fmt.Errorf("compile settings schema: %w", err)
	}

	store := &SettingsStore{
		path:      path,
		schema:    schema,
		overrides: map[string]any{},
	}

	if err := store.load(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SettingsStore) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read user settings: %w", err)
	}

	overrides, err := s.validate(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.overrides = overrides
	s.mu.Unlock()

	return nil
}

func (s *SettingsStore) validate(raw []byte) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	overrides, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidSettings)
	}

	return overrides, nil
}

// Save validates the payload against the schema, persists it and swaps the
// in-memory overrides. The whole override set is replaced, not patched.
func (s *SettingsStore) Save(raw []byte) error {
	overrides, err := s.validate(raw)
	if err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(overrides, "", "  ")
	if err != nil {
		return fmt.Errorf("encode user settings: %w", err)
	}
	if err := os.WriteFile(s.path, pretty, 0o600); err != nil {
		return fmt.Errorf("write user settings: %w", err)
	}

	s.mu.Lock()
	s.overrides = overrides
	s.mu.Unlock()

	return nil
}

// Reset removes the override file and clears the in-memory overrides.
func (s *SettingsStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove user settings: %w", err)
	}

	s.mu.Lock()
	s.overrides = map[string]any{}
	s.mu.Unlock()

	return nil
}

// Values returns a copy of the current overrides.
func (s *SettingsStore) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]any, len(s.overrides))
	for key, value := range s.overrides {
		out[key] = value
	}
	return out
}

// Apply layers the stored overrides on top of cfg and returns the result.
func (s *SettingsStore) Apply(cfg Config) Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.overrides["publish_now"].(bool); ok {
		cfg.PublishNow = v
	}
	if v, ok := s.overrides["lookahead_days"].(float64); ok {
		cfg.LookaheadDays = int(v)
	}
	if v, ok := s.overrides["include_quiz_question"].(bool); ok {
		cfg.IncludeQuizQuestion = v
	}
	if v, ok := s.overrides["quiz_prompt"].(string); ok {
		cfg.QuizPrompt = v
	}
	if v, ok := s.overrides["default_course_id"].(string); ok {
		cfg.DefaultCourseID = v
	}
	if v, ok := s.overrides["shutdown_after_post"].(bool); ok {
		cfg.ShutdownAfterPost = v
	}

	return cfg
}
