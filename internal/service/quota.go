package service

import "clientfiles/internal/cache"

// StorageLimitBytes is the per-user cap on folder-file bytes (100 MiB).
const StorageLimitBytes int64 = 104857600

// TotalBytes sums the recorded sizes of every folder file in st. Files
// without a recorded size count as zero.
func TotalBytes(st *cache.State) int64 {
	var total int64
	for _, ff := range st.FolderFiles() {
		total += ff.Bytes()
	}
	return total
}

// TotalStorageUsed reports the bytes used according to the current cache.
func (s *Service) TotalStorageUsed() int64 {
	return TotalBytes(s.cache.Snapshot())
}

// checkQuota rejects an upload of incoming bytes that would push usage past
// the limit. It reads a snapshot, so two concurrent uploads may both pass.
func (s *Service) checkQuota(incoming int64) error {
	used := s.TotalStorageUsed()
	if used+incoming > StorageLimitBytes {
		return &QuotaError{Used: used, Incoming: incoming, Limit: StorageLimitBytes}
	}
	return nil
}
