package imagenet

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const (
	// InputSize is the side length of the square crop every model input
	// is preprocessed to.
	InputSize = 224
	// NumClasses is the size of the ILSVRC2012 label space.
	NumClasses = 1000
)

// Per-channel statistics of the ILSVRC2012 training set, in RGB order.
var (
	MeanRGB = []float32{0.485, 0.456, 0.406}
	StdRGB  = []float32{0.229, 0.224, 0.225}
)

// Labels maps WordNet synset ids (e.g. "n02708093") to class indices and
// indices back to human-readable names. Indices follow the line order of the
// labels file, so the full ILSVRC2012 file yields indices in [0, 999].
type Labels struct {
	indexByWNID map[string]int
	nameByIndex []string
}

// LoadLabels parses a synset labels file. Each non-empty line is
// "<wnid> <name words...>".
func LoadLabels(path string) (*Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels file: %w", err)
	}
	defer f.Close()

	l := &Labels{indexByWNID: make(map[string]int)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		wnid := parts[0]
		if _, dup := l.indexByWNID[wnid]; dup {
			return nil, fmt.Errorf("duplicate wnid %s in %s", wnid, path)
		}
		l.indexByWNID[wnid] = len(l.nameByIndex)
		l.nameByIndex = append(l.nameByIndex, strings.Join(parts[1:], " "))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	if len(l.nameByIndex) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return l, nil
}

// Index returns the class index for a wnid.
func (l *Labels) Index(wnid string) (int, bool) {
	idx, ok := l.indexByWNID[wnid]
	return idx, ok
}

// Name returns the class name for an index, or "" if out of range.
func (l *Labels) Name(idx int) string {
	if idx < 0 || idx >= len(l.nameByIndex) {
		return ""
	}
	return l.nameByIndex[idx]
}

// NumClasses reports how many classes the labels file defined.
func (l *Labels) NumClasses() int { return len(l.nameByIndex) }

// WNID extracts the synset id from an ILSVRC2012 image file name. Train
// files look like "n02708093_7537.JPEG" and val files like
// "n15075141_ILSVRC2012_val_00047144.JPEG"; the id is the part before the
// first underscore either way.
func WNID(filename string) (string, error) {
	i := strings.IndexByte(filename, '_')
	if i <= 0 {
		return "", fmt.Errorf("file name %q carries no wnid prefix", filename)
	}
	wnid := filename[:i]
	if len(wnid) < 2 || wnid[0] != 'n' {
		return "", fmt.Errorf("file name %q carries no wnid prefix", filename)
	}
	return wnid, nil
}
