package imagenet

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/nfnt/resize"
)

// PrepareOptions configures the raw-layout-to-archive conversion.
type PrepareOptions struct {
	// SrcDir is the flat directory of nXXXXXXXX_*.JPEG files the dataset
	// ships as.
	SrcDir string
	// LabelsFile is the synset labels file; images whose wnid is absent
	// from it are skipped.
	LabelsFile string
	// OutPath is the tar.gz archive to write.
	OutPath string
	// MaxEdge, when non-zero, downscales images so the smaller edge equals
	// MaxEdge (never upscales). Keeps archives small without hurting the
	// 224 crop.
	MaxEdge uint
	// Quality is the JPEG re-encode quality; 0 means jpeg.DefaultQuality.
	Quality int
	// Seed drives the shuffle of entry order.
	Seed int64
}

// PrepareStats reports what a Prepare run did.
type PrepareStats struct {
	Written int
	Skipped int
}

// Prepare converts the raw ILSVRC2012 layout into the shuffled
// <wnid>/<file> tar.gz archive the loaders consume. Malformed or unlabeled
// files are logged, counted, and skipped; producing an empty archive is an
// error.
func Prepare(opts PrepareOptions) (PrepareStats, error) {
	var stats PrepareStats

	labels, err := LoadLabels(opts.LabelsFile)
	if err != nil {
		return stats, err
	}

	entries, err := os.ReadDir(opts.SrcDir)
	if err != nil {
		return stats, fmt.Errorf("read source dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	out, err := os.Create(opts.OutPath)
	if err != nil {
		return stats, fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()
	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	quality := opts.Quality
	if quality == 0 {
		quality = jpeg.DefaultQuality
	}

	for _, name := range names {
		wnid, err := WNID(name)
		if err != nil {
			log.Printf("prepare: skipping %s: %v", name, err)
			stats.Skipped++
			continue
		}
		if _, ok := labels.Index(wnid); !ok {
			log.Printf("prepare: skipping %s: wnid %s not in labels file", name, wnid)
			stats.Skipped++
			continue
		}
		data, err := encodeEntry(filepath.Join(opts.SrcDir, name), opts.MaxEdge, quality)
		if err != nil {
			log.Printf("prepare: skipping %s: %v", name, err)
			stats.Skipped++
			continue
		}
		hdr := &tar.Header{
			Name: wnid + "/" + name,
			Mode: 0o644,
			Size: int64(len(data)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return stats, fmt.Errorf("write archive header: %w", err)
		}
		if _, err := tw.Write(data); err != nil {
			return stats, fmt.Errorf("write archive entry: %w", err)
		}
		stats.Written++
	}

	if err := tw.Close(); err != nil {
		return stats, fmt.Errorf("close archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return stats, fmt.Errorf("close archive: %w", err)
	}
	if stats.Written == 0 {
		return stats, fmt.Errorf("no usable images under %s", opts.SrcDir)
	}
	return stats, nil
}

func encodeEntry(path string, maxEdge uint, quality int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	img = downscale(img, maxEdge)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale shrinks img so its smaller edge equals maxEdge, preserving
// aspect ratio. Images already at or below the cap pass through untouched.
func downscale(img image.Image, maxEdge uint) image.Image {
	if maxEdge == 0 {
		return img
	}
	b := img.Bounds()
	w, h := uint(b.Dx()), uint(b.Dy())
	if w == 0 || h == 0 {
		return img
	}
	if w <= h {
		if w <= maxEdge {
			return img
		}
		return resize.Resize(maxEdge, h*maxEdge/w, img, resize.Lanczos3)
	}
	if h <= maxEdge {
		return img
	}
	return resize.Resize(w*maxEdge/h, maxEdge, img, resize.Lanczos3)
}
