package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// EntryLog is one classified path within a session.
type EntryLog struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Path       string             `json:"path"`
	Title      string             `json:"title,omitempty"`
	MediaType  provider.MediaType `json:"media_type,omitempty"`
	Season     int                `json:"season,omitempty"`
	Episode    int                `json:"episode,omitempty"`
	Year       int                `json:"year,omitempty"`
	Confidence float64            `json:"confidence"`
	Source     provider.Source    `json:"source,omitempty"`
	Success    bool               `json:"success"`
	Error      string             `json:"error,omitempty"`
}

type SessionMetadata struct {
	CommandArgs []string  `json:"command_args"`
	WorkingDir  string    `json:"working_dir"`
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id"`
	Total       int       `json:"total_entries"`
	External    int       `json:"external_entries"`
	Unknown     int       `json:"unknown_entries"`
	Failed      int       `json:"failed_entries"`
}

type LogSession struct {
	Metadata SessionMetadata `json:"metadata"`
	Entries  []EntryLog      `json:"entries"`
}

// Journal records classification sessions as JSON files in a directory.
// A nil or disabled Journal accepts every call and writes nothing.
type Journal struct {
	mu            sync.Mutex
	dir           string
	enabled       bool
	retentionDays int
	current       *LogSession
	now           func() time.Time
}

// DefaultDir returns ~/.shirarium/logs
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".shirarium", "logs"), nil
}

// NewJournal sets up a journal in dir and removes sessions older than
// retentionDays. A retention of zero keeps everything.
func NewJournal(dir string, enabled bool, retentionDays int) *Journal {
	j := &Journal{
		dir:           dir,
		enabled:       enabled && dir != "",
		retentionDays: retentionDays,
		now:           time.Now,
	}
	if j.enabled && retentionDays > 0 {
		if err := j.Cleanup(); err != nil {
			zlog.Warn().Err(err).Msg("journal: failed to clean up old sessions")
		}
	}
	return j
}

// Enabled reports whether sessions are written to disk.
func (j *Journal) Enabled() bool {
	return j != nil && j.enabled
}

// StartSession begins a new session, discarding any unfinished one.
func (j *Journal) StartSession(command string, args []string) error {
	if !j.Enabled() {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	j.current = &LogSession{
		Metadata: SessionMetadata{
			CommandArgs: append([]string{command}, args...),
			WorkingDir:  wd,
			Timestamp:   j.now(),
			SessionID:   uuid.NewString(),
		},
		Entries: []EntryLog{},
	}
	return nil
}

// SessionID returns the active session's ID, or "" when none is open.
func (j *Journal) SessionID() string {
	if !j.Enabled() {
		return ""
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current == nil {
		return ""
	}
	return j.current.Metadata.SessionID
}

// Record appends a classification outcome to the active session.
func (j *Journal) Record(path string, res provider.Result, err error) {
	if !j.Enabled() {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current == nil {
		return
	}

	entry := EntryLog{
		ID:         fmt.Sprintf("%s_%d", j.current.Metadata.SessionID, len(j.current.Entries)),
		Timestamp:  j.now(),
		Path:       path,
		Title:      res.Title,
		MediaType:  res.MediaType(),
		Confidence: res.Confidence,
		Source:     res.Source,
		Success:    err == nil,
	}
	switch c := res.Class.(type) {
	case provider.Movie:
		entry.Year = c.Year
	case provider.Episode:
		entry.Season = c.Season
		entry.Episode = c.Episode
		entry.Year = c.Year
	}
	if err != nil {
		entry.Error = err.Error()
	}

	j.current.Entries = append(j.current.Entries, entry)
}

// EndSession writes the active session and returns the file it wrote.
func (j *Journal) EndSession() (string, error) {
	if !j.Enabled() {
		return "", nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current == nil {
		return "", nil
	}

	session := j.current
	j.current = nil
	updateStats(session)
	return j.writeSession(session)
}

func updateStats(session *LogSession) {
	meta := &session.Metadata
	meta.Total = len(session.Entries)
	meta.External, meta.Unknown, meta.Failed = 0, 0, 0
	for _, entry := range session.Entries {
		if !entry.Success {
			meta.Failed++
		}
		if entry.Source == provider.SourceExternal {
			meta.External++
		}
		if entry.MediaType == provider.MediaTypeUnknown {
			meta.Unknown++
		}
	}
}

func (j *Journal) writeSession(session *LogSession) (string, error) {
	if err := os.MkdirAll(j.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	ts := session.Metadata.Timestamp
	filename := fmt.Sprintf("%s.%03d_%s.json",
		ts.Format("2006-01-02_150405"),
		ts.Nanosecond()/1000000,
		shortID(session.Metadata.SessionID))
	logPath := filepath.Join(j.dir, filename)

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(logPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write log file: %w", err)
	}

	return logPath, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func ReadSession(logPath string) (*LogSession, error) {
	data, err := os.ReadFile(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var session LogSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// ReadSessions returns up to limit sessions from dir, newest first.
// Corrupted files are skipped.
func ReadSessions(dir string, limit int) ([]*LogSession, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []*LogSession{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	// File names start with the timestamp
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	sessions := make([]*LogSession, 0, len(files))
	for _, file := range files {
		session, err := ReadSession(file)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// Cleanup removes session files older than the retention window.
func (j *Journal) Cleanup() error {
	if !j.Enabled() || j.retentionDays <= 0 {
		return nil
	}

	if _, err := os.Stat(j.dir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(j.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list log files: %w", err)
	}

	cutoff := j.now().AddDate(0, 0, -j.retentionDays)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				zlog.Warn().Err(err).Str("file", file).Msg("journal: failed to remove old session")
			}
		}
	}

	return nil
}
