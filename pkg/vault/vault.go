// Package vault is the filesystem collaborator for controlled documents.
// It manages three areas: incoming (mutable uploads), controlled (read-only
// canonical copies), and archive (retained history), and computes the
// content digests used for tamper detection.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

const maxTitleLen = 50

var titleSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Vault manages the document storage areas.
type Vault struct {
	incoming   string
	controlled string
	archive    string
	logger     *zap.Logger
}

// Config holds the three storage directories.
type Config struct {
	Incoming   string `koanf:"incoming"`
	Controlled string `koanf:"controlled"`
	Archive    string `koanf:"archive"`
}

// New creates a Vault and ensures all three directories exist.
func New(cfg Config, logger *zap.Logger) (*Vault, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Vault{
		incoming:   cfg.Incoming,
		controlled: cfg.Controlled,
		archive:    cfg.Archive,
		logger:     logger,
	}
	for _, dir := range []string{v.incoming, v.controlled, v.archive} {
		if dir == "" {
			return nil, fmt.Errorf("%w: vault directory not configured", document.ErrValidation)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating vault directory %s: %w", dir, err)
		}
	}
	return v, nil
}

// IncomingDir returns the mutable upload area.
func (v *Vault) IncomingDir() string { return v.incoming }

// HashFile streams the file through SHA-256 and returns the hex digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: file %s", document.ErrNotFound, path)
		}
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SanitizeTitle makes a document title safe for filenames: spaces become
// underscores, everything else non-alphanumeric is dropped, length capped.
func SanitizeTitle(title string) string {
	s := strings.ReplaceAll(title, " ", "_")
	s = titleSanitizer.ReplaceAllString(s, "")
	if len(s) > maxTitleLen {
		s = s[:maxTitleLen]
	}
	return s
}

// ControlledName builds the canonical controlled filename:
// {doc_id}_{version}_{sanitized_title}{ext}.
func ControlledName(docID, version, title, ext string) string {
	return fmt.Sprintf("%s_%s_%s%s", docID, version, SanitizeTitle(title), ext)
}

// ArchiveName builds the archival filename with the retirement date:
// {doc_id}_{version}_ARCHIVED_{yyyymmdd}{ext}.
func ArchiveName(docID, version, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s_ARCHIVED_%s%s", docID, version, now.Format("20060102"), ext)
}

// MoveToControlled moves a source file into the controlled area under the
// canonical name and locks it read-only. On any failure the source file is
// left in place. Returns the new path.
func (v *Vault) MoveToControlled(sourcePath, docID, version, title string) (string, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return "", fmt.Errorf("%w: source file %s", document.ErrNotFound, sourcePath)
	}

	dest := filepath.Join(v.controlled, ControlledName(docID, version, title, filepath.Ext(sourcePath)))
	if err := copyFile(sourcePath, dest); err != nil {
		return "", fmt.Errorf("moving to controlled area: %w", err)
	}
	if err := setReadOnly(dest); err != nil {
		// The copy exists but can't be locked; remove it rather than
		// leave an unlocked controlled file.
		os.Remove(dest)
		return "", fmt.Errorf("locking controlled file: %w", err)
	}
	if err := os.Remove(sourcePath); err != nil {
		v.logger.Warn("could not remove source after controlled copy",
			zap.String("source", sourcePath), zap.Error(err))
	}

	v.logger.Info("document moved to controlled area",
		zap.String("doc_id", docID),
		zap.String("version", version),
		zap.String("path", dest))
	return dest, nil
}

// Rollback undoes a MoveToControlled after a downstream failure: the
// controlled copy is unlocked and moved back to the original source path.
func (v *Vault) Rollback(controlledPath, sourcePath string) error {
	if err := setWritable(controlledPath); err != nil {
		return fmt.Errorf("unlocking for rollback: %w", err)
	}
	if err := copyFile(controlledPath, sourcePath); err != nil {
		return fmt.Errorf("restoring source: %w", err)
	}
	if err := os.Remove(controlledPath); err != nil {
		return fmt.Errorf("removing controlled copy: %w", err)
	}
	v.logger.Warn("controlled move rolled back",
		zap.String("controlled", controlledPath),
		zap.String("restored", sourcePath))
	return nil
}

// Archive moves a retired controlled file into the archive area under a
// dated name. Returns the archive path.
func (v *Vault) Archive(controlledPath, docID, version string, now time.Time) (string, error) {
	if _, err := os.Stat(controlledPath); err != nil {
		return "", fmt.Errorf("%w: controlled file %s", document.ErrNotFound, controlledPath)
	}

	dest := filepath.Join(v.archive, ArchiveName(docID, version, filepath.Ext(controlledPath), now))

	// The controlled file is read-only; unlock before moving.
	if err := setWritable(controlledPath); err != nil {
		return "", fmt.Errorf("unlocking for archive: %w", err)
	}
	if err := os.Rename(controlledPath, dest); err != nil {
		// Rename fails across filesystems; fall back to copy+remove.
		if err := copyFile(controlledPath, dest); err != nil {
			return "", fmt.Errorf("archiving %s: %w", controlledPath, err)
		}
		if err := os.Remove(controlledPath); err != nil {
			return "", fmt.Errorf("removing archived original: %w", err)
		}
	}

	v.logger.Info("document archived",
		zap.String("doc_id", docID),
		zap.String("version", version),
		zap.String("path", dest))
	return dest, nil
}

// Verify recomputes the digest of a controlled file and compares it to the
// stored value. A mismatch is an integrity failure, never auto-corrected.
func (v *Vault) Verify(path, expectedHash string) error {
	actual, err := HashFile(path)
	if err != nil {
		return err
	}
	if actual != expectedHash {
		return fmt.Errorf("%w: file hash mismatch for %s", document.ErrIntegrity, path)
	}
	return nil
}

// ListIncoming returns the files waiting in the incoming area, sorted.
func (v *Vault) ListIncoming() ([]string, error) {
	entries, err := os.ReadDir(v.incoming)
	if err != nil {
		return nil, fmt.Errorf("reading incoming area: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(v.incoming, e.Name()))
		}
	}
	return files, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func setReadOnly(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()&^0o222)
}

func setWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()|0o200)
}
