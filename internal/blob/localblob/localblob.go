// Package localblob keeps attachment payloads inside the local durable store.
// Payloads live under one named entry as a map from task id to file list, and
// every mutation rewrites that entry atomically.
package localblob

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mpetrenko/taskflow/internal/blob"
	"github.com/mpetrenko/taskflow/internal/common"
	"github.com/mpetrenko/taskflow/internal/dbx"
	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/store/localstore"
)

const keyPrefix = "attachments/"

type fileRecord struct {
	Name       string    `json:"name"`
	Content    []byte    `json:"content"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Store implements blob.Store over the local key/value table. Keys have the
// form attachments/{taskID}/{fileName} and double as the object URL, since
// there is no server to serve the payload from.
type Store struct {
	db     *sql.DB
	log    logging.Logger
	policy blob.CollisionPolicy
	now    func() time.Time

	mu sync.Mutex
}

// New returns a Store with the given collision policy. An empty policy
// defaults to overwrite.
func New(db *sql.DB, log logging.Logger, policy blob.CollisionPolicy) *Store {
	if policy == "" {
		policy = blob.CollisionOverwrite
	}
	return &Store{db: db, log: log, policy: policy, now: time.Now}
}

func objectKey(taskID, fileName string) string {
	return keyPrefix + taskID + "/" + fileName
}

func parseKey(key string) (taskID, fileName string, err error) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: malformed blob key %q", common.ErrValidation, key)
	}
	taskID, fileName, ok = strings.Cut(rest, "/")
	if !ok || taskID == "" || fileName == "" {
		return "", "", fmt.Errorf("%w: malformed blob key %q", common.ErrValidation, key)
	}
	return taskID, fileName, nil
}

func loadFiles(ctx context.Context, kv *localstore.KV) (map[string][]fileRecord, error) {
	data, err := kv.Get(ctx, localstore.KeyAttachments)
	if err != nil {
		return nil, err
	}
	files := map[string][]fileRecord{}
	if data == nil {
		return files, nil
	}
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("failed to decode stored attachments: %w", err)
	}
	return files, nil
}

func saveFiles(ctx context.Context, kv *localstore.KV, files map[string][]fileRecord) error {
	data, err := json.Marshal(files)
	if err != nil {
		return err
	}
	return kv.Set(ctx, localstore.KeyAttachments, data)
}

func (s *Store) Upload(ctx context.Context, ownerID, taskID, fileName string, content []byte) (*blob.Object, error) {
	if fileName == "" || strings.Contains(fileName, "/") {
		return nil, fmt.Errorf("%w: invalid file name %q", common.ErrValidation, fileName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := fileRecord{Name: fileName, Content: content, UploadedAt: s.now()}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		kv := localstore.NewKV(tx)
		files, err := loadFiles(ctx, kv)
		if err != nil {
			return err
		}

		list := files[taskID]
		replaced := false
		for i, f := range list {
			if f.Name == fileName {
				if s.policy == blob.CollisionReject {
					return fmt.Errorf("%w: %s", common.ErrDuplicateName, fileName)
				}
				list[i] = record
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, record)
		}
		files[taskID] = list
		return saveFiles(ctx, kv, files)
	})
	if err != nil {
		return nil, err
	}

	key := objectKey(taskID, fileName)
	return &blob.Object{Name: fileName, Key: key, URL: key, Size: int64(len(content))}, nil
}

func (s *Store) List(ctx context.Context, ownerID, taskID string) ([]*blob.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := loadFiles(ctx, localstore.NewKV(s.db))
	if err != nil {
		return nil, err
	}

	list := files[taskID]
	result := make([]*blob.Object, 0, len(list))
	for _, f := range list {
		key := objectKey(taskID, f.Name)
		result = append(result, &blob.Object{Name: f.Name, Key: key, URL: key, Size: int64(len(f.Content))})
	}
	return result, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	taskID, fileName, err := parseKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		kv := localstore.NewKV(tx)
		files, err := loadFiles(ctx, kv)
		if err != nil {
			return err
		}

		list := files[taskID]
		kept := list[:0]
		for _, f := range list {
			if f.Name != fileName {
				kept = append(kept, f)
			}
		}
		if len(kept) == len(list) {
			s.log.Debug(ctx, "blob already absent", "key", key)
			return nil
		}
		if len(kept) == 0 {
			delete(files, taskID)
		} else {
			files[taskID] = kept
		}
		return saveFiles(ctx, kv, files)
	})
}

func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	taskID, fileName, err := parseKey(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := loadFiles(ctx, localstore.NewKV(s.db))
	if err != nil {
		return nil, err
	}
	for _, f := range files[taskID] {
		if f.Name == fileName {
			return f.Content, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", common.ErrNotFound, key)
}
