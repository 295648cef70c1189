package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/devaalay/asset-service/internal/types"
	"github.com/devaalay/asset-service/internal/upload"
)

// Expander opens a ZIP payload, filters to image entries, and stages each
// accepted entry in archive-encounter order.
type Expander struct {
	stager     upload.Stager
	extensions map[string]bool
	log        *slog.Logger
}

func NewExpander(stager upload.Stager, extensions []string, log *slog.Logger) *Expander {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}
	return &Expander{stager: stager, extensions: allowed, log: log}
}

// Expand stages every accepted image entry under keyPrefix and returns the
// descriptors sorted by their assigned order. Individual corrupt or
// unreadable entries are skipped; only a failure to open the archive itself
// is fatal. An archive yielding zero images is not an error here — the
// caller decides what an empty result means.
func (e *Expander) Expand(ctx context.Context, zipBytes []byte, keyPrefix string) ([]types.ImageObject, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, upload.ArchiveOpen(err)
	}

	var images []types.ImageObject
	seq := 0
	for _, entry := range zr.File {
		if !e.accepts(entry) {
			continue
		}

		// 1-based, counted over accepted entries, independent of any
		// ordering metadata inside the archive.
		seq++

		basename := path.Base(entry.Name)
		data, err := readEntry(entry)
		if err != nil {
			e.log.Warn("skipping unreadable archive entry",
				slog.String("entry", entry.Name), slog.String("error", err.Error()))
			continue
		}

		key := fmt.Sprintf("%s/%03d_%s", strings.TrimSuffix(keyPrefix, "/"), seq, basename)
		contentType := mime.TypeByExtension(strings.ToLower(path.Ext(basename)))

		ref, err := e.stager.Stage(ctx, key, data, contentType)
		if err != nil {
			e.log.Warn("skipping archive entry after failed upload",
				slog.String("entry", entry.Name), slog.String("error", err.Error()))
			continue
		}

		images = append(images, types.ImageObject{
			Key:        ref.Key,
			Order:      seq,
			Filename:   basename,
			Size:       ref.Size,
			UploadedAt: ref.UploadedAt,
		})
	}

	// Normally already ordered; sorting makes the guarantee explicit.
	sort.Slice(images, func(i, j int) bool { return images[i].Order < images[j].Order })

	return images, nil
}

// accepts filters out directory markers, macOS resource forks, dotfiles and
// anything without a configured image extension.
func (e *Expander) accepts(entry *zip.File) bool {
	if entry.FileInfo().IsDir() {
		return false
	}

	name := strings.ReplaceAll(entry.Name, "\\", "/")
	for _, segment := range strings.Split(name, "/") {
		if segment == "__MACOSX" || strings.HasPrefix(segment, ".") {
			return false
		}
	}

	return e.extensions[strings.ToLower(path.Ext(name))]
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
