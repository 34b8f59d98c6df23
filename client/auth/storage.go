package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/contentapp/e2e/client/request"
	"github.com/contentapp/e2e/pkg/logger"
	"github.com/contentapp/e2e/pkg/utils"

	"github.com/nightlyone/lockfile"
)

// TicketFileFmt is the filename in which are stored the tickets.
const TicketFileFmt = ".e2e-ticket-%s" // #nosec

// Storage is an interface to specify how to store and load tickets. A nil
// ticket given to Save forgets the stored one.
type Storage interface {
	Load(key string) (*Ticket, error)
	Save(key string, ticket *Ticket) error
}

// FileStorage implements the Storage interface using a simple file per key,
// in Dir (the user home directory by default).
type FileStorage struct {
	Dir string
}

type ticketData struct {
	Ticket *Ticket `json:"ticket,omitempty"`
	Key    string  `json:"key,omitempty"`
}

// NewFileStorage creates a new *FileStorage
func NewFileStorage() *FileStorage {
	return &FileStorage{Dir: utils.UserHomeDir()}
}

func (s *FileStorage) filename(key string) string {
	safe := strings.NewReplacer("/", "_", ":", "_").Replace(key)
	return filepath.Join(s.Dir, fmt.Sprintf(TicketFileFmt, safe))
}

// Load reads the ticket stored for the specified key.
func (s *FileStorage) Load(key string) (*Ticket, error) {
	filename := s.filename(key)
	l, err := newFileLock(filename)
	if err != nil {
		return nil, err
	}
	if err = l.TryLock(); err != nil {
		return nil, err
	}
	defer l.Unlock()
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) || err == io.EOF {
			err = nil
		}
		return nil, err
	}
	data := &ticketData{}
	if err = request.ReadJSON(f, data); err != nil {
		logger.WithNamespace("auth").Warnf("Ticket file %s is malformed: %s", filename, err)
		return nil, nil
	}
	if data.Key != key {
		return nil, nil
	}
	return data.Ticket, nil
}

// Save writes the ticket to a file for the specified key.
func (s *FileStorage) Save(key string, ticket *Ticket) error {
	filename := s.filename(key)
	l, err := newFileLock(filename)
	if err != nil {
		return err
	}
	if err = l.TryLock(); err != nil {
		return err
	}
	defer l.Unlock()
	if ticket == nil {
		if err = os.Remove(filename); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(&ticketData{Ticket: ticket, Key: key})
}

func newFileLock(name string) (lockfile.Lockfile, error) {
	lockName := strings.Replace(name, "/", "_", -1) + ".lock"
	return lockfile.New(filepath.Join(os.TempDir(), lockName))
}

// MemStorage keeps the tickets in memory, for the duration of the process.
type MemStorage struct {
	mu      sync.Mutex
	tickets map[string]*Ticket
}

// NewMemStorage creates a new *MemStorage
func NewMemStorage() *MemStorage {
	return &MemStorage{tickets: make(map[string]*Ticket)}
}

// Load implements Storage.
func (s *MemStorage) Load(key string) (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets[key], nil
}

// Save implements Storage.
func (s *MemStorage) Save(key string, ticket *Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket == nil {
		delete(s.tickets, key)
		return nil
	}
	s.tickets[key] = ticket
	return nil
}
