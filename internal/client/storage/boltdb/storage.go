package boltdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var (
	// BoltDB bucket names
	bucketBackups  = []byte("backups")
	bucketMetadata = []byte("metadata")
)

// DefaultMaxValueBytes ограничение на размер одного бэкапа по умолчанию.
// Аналог квоты localStorage в браузере: превышение дает storage.ErrQuotaExceeded.
const DefaultMaxValueBytes = 5 << 20

// Options настраивает хранилище.
type Options struct {
	// MaxValueBytes максимальный размер значения; 0 означает DefaultMaxValueBytes,
	// отрицательное значение снимает ограничение
	MaxValueBytes int
	// OpenTimeout сколько ждать файловую блокировку, если БД открыта другим процессом
	OpenTimeout time.Duration
}

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db            *bbolt.DB
	maxValueBytes int
	mu            sync.RWMutex
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	return NewWithOptions(ctx, dbPath, Options{})
}

// NewWithOptions creates a new BoltDB storage instance with custom options
func NewWithOptions(ctx context.Context, dbPath string, opts Options) (*Storage, error) {
	timeout := opts.OpenTimeout
	if timeout <= 0 {
		timeout = time.Second
	}

	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	maxValueBytes := opts.MaxValueBytes
	if maxValueBytes == 0 {
		maxValueBytes = DefaultMaxValueBytes
	}

	storage := &Storage{db: db, maxValueBytes: maxValueBytes}

	// Инициализируем buckets
	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		// Создаем bucket для локальных бэкапов
		if _, err := tx.CreateBucketIfNotExists(bucketBackups); err != nil {
			return fmt.Errorf("failed to create backups bucket: %w", err)
		}

		// Создаем bucket для метаданных синхронизации
		if _, err := tx.CreateBucketIfNotExists(bucketMetadata); err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		return nil
	})
}
