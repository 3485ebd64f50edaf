package db

import (
	"errors"
	"io/fs"
	"os"
)

// DBTotalSize returns the combined size of a SQLite database file and its -wal and -shm files.
// Missing files count as zero.
func DBTotalSize(dbPath string) (int64, error) {
	var total int64

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}

	return total, nil
}
