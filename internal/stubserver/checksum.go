package stubserver

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/Project-Sylos/Harbor/internal/types"
)

// ComputeChecksum computes a SHA256 checksum for the given data
func ComputeChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// processChecksum fills in the checksum of a freshly uploaded file after
// delay, moving it from pending to processed.
func (s *Server) processChecksum(id types.ItemID) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.checksumDelay > 0 {
			select {
			case <-time.After(s.checksumDelay):
			case <-s.done:
				return
			}
		}
		_, data, err := s.store.Content(id)
		if err != nil {
			// deleted before processing
			return
		}
		s.store.SetChecksum(id, types.ChecksumStatus{State: types.ChecksumReady, Checksum: ComputeChecksum(data)})
	}()
}
