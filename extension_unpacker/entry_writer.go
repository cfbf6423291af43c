package extension_unpacker

import (
	"io"
	"os"
	"path/filepath"

	"github.com/expack/go-extension-unpacker/extension_unpacker/unpacker_errors"
)

// budgetReader charges every chunk read from an entry against the budget
// before the caller can write it, so a decompression bomb is stopped at
// chunk granularity no matter what size the entry declared.
type budgetReader struct {
	reader io.Reader
	budget *budget
	entry  string
}

func (br *budgetReader) Read(p []byte) (int, error) {
	n, err := br.reader.Read(p)
	if n > 0 {
		if limitErr := br.budget.trackEntryBytes(br.entry, int64(n)); limitErr != nil {
			return n, limitErr
		}
		if limitErr := br.budget.trackTotalBytes(int64(n)); limitErr != nil {
			return n, limitErr
		}
	}
	return n, err
}

// writeEntryFile streams entry bytes to target through the budget. When a
// limit trips mid-stream the partially written file is removed before the
// error propagates; that is the single recovery action this engine
// performs. Existing files are overwritten silently, which is documented
// caller responsibility.
func writeEntryFile(b *budget, target, entry string, src io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return unpacker_errors.New(err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return unpacker_errors.New(err)
	}
	_, copyErr := io.Copy(out, &budgetReader{reader: src, budget: b, entry: entry})
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(target)
		if unpacker_errors.IsLimitExceeded(copyErr) {
			return copyErr
		}
		return unpacker_errors.New(copyErr)
	}
	if closeErr != nil {
		os.Remove(target)
		return unpacker_errors.New(closeErr)
	}
	if perm != 0 {
		// permission restore is an enhancement, not a correctness requirement
		_ = os.Chmod(target, perm&0o777)
	}
	return nil
}
