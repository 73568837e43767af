package stubserver

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/Project-Sylos/Harbor/internal/types"
)

// RNG wraps math/rand.Rand for seeded generation
type RNG struct {
	*rand.Rand
}

// NewRNG creates a new seeded random number generator
func NewRNG(seed int64) *RNG {
	return &RNG{Rand: rand.New(rand.NewSource(seed))}
}

// ValidateSeed checks that the folder and file ranges are usable
func ValidateSeed(cfg types.SeedConfig) error {
	if cfg.MaxDepth < 0 {
		return fmt.Errorf("seed max_depth must be non-negative, got %d", cfg.MaxDepth)
	}
	if cfg.MinFolders < 0 || cfg.MaxFolders < cfg.MinFolders {
		return fmt.Errorf("seed folder range [%d, %d] is invalid", cfg.MinFolders, cfg.MaxFolders)
	}
	if cfg.MinFiles < 0 || cfg.MaxFiles < cfg.MinFiles {
		return fmt.Errorf("seed file range [%d, %d] is invalid", cfg.MinFiles, cfg.MaxFiles)
	}
	if cfg.FileBytes < 0 {
		return fmt.Errorf("seed file_bytes must be non-negative, got %d", cfg.FileBytes)
	}
	return nil
}

// Seed fills store with a sample tree. The same seed always yields the same
// names and file contents; item ids are fresh on every run.
func Seed(store *Store, cfg types.SeedConfig) error {
	if err := ValidateSeed(cfg); err != nil {
		return err
	}
	return seedChildren(store, types.Root, 0, NewRNG(cfg.Seed), cfg)
}

func seedChildren(store *Store, parent types.FolderID, depth int, rng *RNG, cfg types.SeedConfig) error {
	if depth >= cfg.MaxDepth {
		return nil
	}

	folderCount := rng.Intn(cfg.MaxFolders-cfg.MinFolders+1) + cfg.MinFolders
	fileCount := rng.Intn(cfg.MaxFiles-cfg.MinFiles+1) + cfg.MinFiles

	for i := 1; i <= fileCount; i++ {
		if err := seedFile(store, parent, fmt.Sprintf("file_%d.txt", i), rng, cfg.FileBytes); err != nil {
			return fmt.Errorf("failed to seed file %d: %w", i, err)
		}
	}
	for i := 1; i <= folderCount; i++ {
		dir, err := store.CreateDirectory(parent, fmt.Sprintf("folder_%d", i))
		if err != nil {
			return fmt.Errorf("failed to seed folder %d: %w", i, err)
		}
		if err := seedChildren(store, types.FolderID(dir.ID), depth+1, rng, cfg); err != nil {
			return err
		}
	}
	return nil
}

func seedFile(store *Store, parent types.FolderID, name string, rng *RNG, size int) error {
	data := GenerateFileData(rng, size)
	item, err := store.PutChunk(Chunk{
		UploadID:  uuid.NewString(),
		Name:      name,
		Total:     1,
		TotalSize: int64(len(data)),
		Parent:    parent,
		Data:      data,
	})
	if err != nil {
		return err
	}
	store.SetChecksum(item.ID, types.ChecksumStatus{State: types.ChecksumReady, Checksum: ComputeChecksum(data)})
	return nil
}

// GenerateFileData returns size pseudo-random bytes drawn from rng
func GenerateFileData(rng *RNG, size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rng.Intn(256))
	}
	return data
}
